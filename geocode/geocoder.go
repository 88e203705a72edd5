package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"finn-scraper/models"
	"finn-scraper/utils"
)

// ErrNoMatch is returned when the provider finds no candidate for an
// address.
var ErrNoMatch = errors.New("geocode: no match for address")

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lon float64, err error)
}

// ArcGIS calls the ArcGIS World findAddressCandidates endpoint, the same
// provider the tool has always used.
type ArcGIS struct {
	endpoint string
	client   *http.Client
	retry    *utils.RetryConfig
}

// NewArcGIS creates an ArcGIS geocoder against the given endpoint URL.
func NewArcGIS(endpoint string, timeout time.Duration, retry *utils.RetryConfig) *ArcGIS {
	return &ArcGIS{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		retry:    retry,
	}
}

type candidatesResponse struct {
	Candidates []struct {
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
	} `json:"candidates"`
}

func (g *ArcGIS) Geocode(ctx context.Context, address string) (float64, float64, error) {
	query := url.Values{}
	query.Set("f", "json")
	query.Set("singleLine", address)
	query.Set("maxLocations", "1")
	reqURL := g.endpoint + "?" + query.Encode()

	var lat, lon float64
	found := false
	err := g.retry.Do("geocode", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("geocode: build request: %w", err)
		}

		res, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("geocode: GET: %w", err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("geocode: status %d", res.StatusCode)
		}

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("geocode: read body: %w", err)
		}

		var parsed candidatesResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("geocode: parse response: %w", err)
		}
		if len(parsed.Candidates) == 0 {
			// Not retryable: the provider answered, it just has no match.
			return nil
		}

		lat = parsed.Candidates[0].Location.Y
		lon = parsed.Candidates[0].Location.X
		found = true
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrNoMatch, address)
	}
	return lat, lon, nil
}

type cacheEntry struct {
	lat, lon float64
	err      error
}

// Cache memoizes a Geocoder by exact address string. Successes and
// failures are both recorded, so each distinct address costs at most one
// provider call per run. Addresses differing only in whitespace are
// distinct keys on purpose.
type Cache struct {
	inner Geocoder

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache wraps a Geocoder with memoization.
func NewCache(inner Geocoder) *Cache {
	return &Cache{inner: inner, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Geocode(ctx context.Context, address string) (float64, float64, error) {
	c.mu.Lock()
	if e, ok := c.entries[address]; ok {
		c.mu.Unlock()
		return e.lat, e.lon, e.err
	}
	c.mu.Unlock()

	lat, lon, err := c.inner.Geocode(ctx, address)

	c.mu.Lock()
	c.entries[address] = cacheEntry{lat: lat, lon: lon, err: err}
	c.mu.Unlock()

	return lat, lon, err
}

// Invalidate drops a single cached address; a long-lived service can use
// it when a provider outage poisoned the cache with failures.
func (c *Cache) Invalidate(address string) {
	c.mu.Lock()
	delete(c.entries, address)
	c.mu.Unlock()
}

// Size returns the number of memoized addresses.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Annotate geocodes every row's object-address and attaches latitude and
// longitude columns. Rows whose address is missing or fails to resolve
// keep missing coordinates and stay in the table; the counts make the
// failures visible to the caller.
func Annotate(ctx context.Context, table *models.Table, g Geocoder, logger *utils.Logger) (ok, failed int) {
	table.AddColumn("latitude")
	table.AddColumn("longitude")

	for _, row := range table.Rows {
		address := row.Get("object-address").TextValue()
		if address == "" {
			row["latitude"] = models.Missing()
			row["longitude"] = models.Missing()
			failed++
			continue
		}

		lat, lon, err := g.Geocode(ctx, address)
		if err != nil {
			logger.Warn("[geocode] %q: %v", address, err)
			row["latitude"] = models.Missing()
			row["longitude"] = models.Missing()
			failed++
			continue
		}

		row["latitude"] = models.Float(lat)
		row["longitude"] = models.Float(lon)
		ok++
	}

	logger.Info("[geocode] Resolved %d addresses, %d without coordinates", ok, failed)
	return ok, failed
}
