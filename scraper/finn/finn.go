package finn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"finn-scraper/config"
	"finn-scraper/models"
	"finn-scraper/utils"
)

// Scraper drives identifier discovery and per-ad attribute extraction
// against the finn.no homes search.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher Fetcher
	pool    *utils.WorkerPool
	visited *utils.IDSet
	retry   *utils.RetryConfig
}

// Stats counts the fail-soft events of a scrape pass.
type Stats struct {
	PagesFailed   int
	PagesEmpty    int
	AdsFailed     int
	AdsSkippedDup int
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger, fetcher Fetcher) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visited: utils.NewIDSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// DiscoverIDs walks result pages 1..MaxPages and collects finnkoder in
// page order. Pages that fail or match no ad links contribute nothing and
// discovery continues; identifiers are not deduplicated here.
func (s *Scraper) DiscoverIDs(ctx context.Context) ([]string, Stats) {
	var ids []string
	var stats Stats

	for page := 1; page <= s.cfg.MaxPages; page++ {
		url := fmt.Sprintf("%s&page=%d", searchURL, page)

		var html string
		err := s.retry.Do(fmt.Sprintf("search-page-%d", page), func() error {
			var ferr error
			html, ferr = s.fetcher.Fetch(ctx, url)
			return ferr
		})
		if err != nil {
			s.logger.Error("[finn] Search page %d failed: %v", page, err)
			stats.PagesFailed++
			continue
		}

		pageIDs, err := parseSearchPage(html)
		if err != nil {
			s.logger.Error("[finn] Search page %d unparsable: %v", page, err)
			stats.PagesFailed++
			continue
		}
		if len(pageIDs) == 0 {
			s.logger.Warn("[finn] Search page %d matched no ad links", page)
			stats.PagesEmpty++
			continue
		}

		s.logger.Info("[finn] Page %d — %d ad ids", page, len(pageIDs))
		ids = append(ids, pageIDs...)
	}

	return ids, stats
}

func parseSearchPage(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var ids []string
	doc.Find(searchAdLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		if id, ok := sel.Attr("id"); ok && id != "" {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

// ScrapeAll fetches every discovered ad on the worker pool and extracts
// its attribute map. Results land in a write-once slot per identifier so
// output order follows discovery order. Duplicate identifiers from
// overlapping result pages are skipped; failed ads are dropped and
// counted.
func (s *Scraper) ScrapeAll(ctx context.Context, ids []string) ([]*models.RawAd, Stats) {
	slots := make([]*models.RawAd, len(ids))
	failed := make([]bool, len(ids))
	dup := make([]bool, len(ids))

	for i, id := range ids {
		if !s.visited.Add(id) {
			dup[i] = true
			continue
		}

		i, id := i, id
		s.pool.Submit(func() {
			ad, err := s.scrapeAd(ctx, id)
			if err != nil {
				s.logger.Error("[finn] Ad %s failed: %v", id, err)
				failed[i] = true
				return
			}
			slots[i] = ad
		})
	}
	s.pool.Wait()

	var stats Stats
	ads := make([]*models.RawAd, 0, len(ids))
	for i, ad := range slots {
		switch {
		case dup[i]:
			stats.AdsSkippedDup++
		case failed[i] || ad == nil:
			stats.AdsFailed++
		default:
			ads = append(ads, ad)
		}
	}
	return ads, stats
}

func (s *Scraper) scrapeAd(ctx context.Context, id string) (*models.RawAd, error) {
	url := adURL + id

	var html string
	err := s.retry.Do("ad-"+id, func() error {
		var ferr error
		html, ferr = s.fetcher.Fetch(ctx, url)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	fields, err := Extract(html)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("[finn] Ad %s — %d fields", id, len(fields))

	return &models.RawAd{
		ID:        id,
		URL:       url,
		Fields:    fields,
		ScrapedAt: time.Now(),
	}, nil
}

// Extract maps every data-testid value on the page to that element's
// trimmed visible text. When the same test id appears on several
// elements the later one wins. No field is mandatory here; a page
// without a field simply omits the key.
func Extract(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse ad page: %w", err)
	}

	fields := make(map[string]string)
	doc.Find(testIDSelector).Each(func(_ int, sel *goquery.Selection) {
		key, ok := sel.Attr(testIDAttr)
		if !ok || key == "" {
			return
		}
		fields[key] = strings.TrimSpace(sel.Text())
	})
	return fields, nil
}
