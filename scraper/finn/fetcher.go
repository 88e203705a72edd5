package finn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"finn-scraper/config"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves the markup of a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close()
}

// NewFetcher builds the fetcher selected by FETCH_MODE. The plain HTTP
// fetcher is the default; the browser fetcher exists for the day the
// portal stops serving full markup to script-less clients.
func NewFetcher(cfg *config.Config) Fetcher {
	if cfg.FetchMode == "browser" {
		return newBrowserFetcher(cfg)
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond},
	}
}

// HTTPFetcher issues plain GET requests.
type HTTPFetcher struct {
	client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch: build request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "nb-NO,nb;q=0.9,en;q=0.8")

	res, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: GET %q: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("fetch: GET %q: status %d", url, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("fetch: read body of %q: %w", url, err)
	}
	return string(body), nil
}

func (f *HTTPFetcher) Close() {}

// BrowserFetcher renders pages in headless Chrome and returns the
// resulting document markup.
type BrowserFetcher struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

func newBrowserFetcher(cfg *config.Config) *BrowserFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	allocCtx = silentCtx

	return &BrowserFetcher{
		allocCtx: allocCtx,
		cancel: func() {
			cancelSilent()
			cancel()
		},
		timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond * 4,
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("fetch: browser render %q: %w", url, err)
	}
	return html, nil
}

func (f *BrowserFetcher) Close() {
	f.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
