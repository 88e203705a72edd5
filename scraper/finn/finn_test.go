package finn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"finn-scraper/config"
	"finn-scraper/utils"
)

type fakeFetcher struct {
	pages map[string]string
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls++
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("not found")
	}
	return html, nil
}

func (f *fakeFetcher) Close() {}

func testConfig() *config.Config {
	return &config.Config{
		MaxPages:       2,
		MaxConcurrency: 2,
		RateLimitMs:    0,
		MaxRetries:     1,
	}
}

func searchPageHTML(ids ...string) string {
	html := "<html><body>"
	for _, id := range ids {
		html += fmt.Sprintf(`<a class="sf-search-ad-link" id="%s" href="/ad">ad</a>`, id)
	}
	return html + "</body></html>"
}

func TestDiscoverIDsPageOrder(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		searchURL + "&page=1": searchPageHTML("111", "222"),
		searchURL + "&page=2": searchPageHTML("333", "111"),
	}}
	s := New(testConfig(), utils.NewLogger(), fetcher)

	ids, stats := s.DiscoverIDs(context.Background())

	want := []string{"111", "222", "333", "111"}
	if len(ids) != len(want) {
		t.Fatalf("ids: got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d]: got %q, want %q", i, ids[i], want[i])
		}
	}
	if stats.PagesFailed != 0 {
		t.Errorf("PagesFailed: got %d, want 0", stats.PagesFailed)
	}
}

func TestDiscoverIDsFailSoft(t *testing.T) {
	// Page 1 errors, page 2 works — discovery must continue.
	fetcher := &fakeFetcher{pages: map[string]string{
		searchURL + "&page=2": searchPageHTML("444"),
	}}
	s := New(testConfig(), utils.NewLogger(), fetcher)

	ids, stats := s.DiscoverIDs(context.Background())

	if len(ids) != 1 || ids[0] != "444" {
		t.Errorf("ids: got %v, want [444]", ids)
	}
	if stats.PagesFailed != 1 {
		t.Errorf("PagesFailed: got %d, want 1", stats.PagesFailed)
	}
}

func TestDiscoverIDsEmptyPage(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		searchURL + "&page=1": "<html><body><p>ingen treff</p></body></html>",
		searchURL + "&page=2": searchPageHTML("555"),
	}}
	s := New(testConfig(), utils.NewLogger(), fetcher)

	ids, stats := s.DiscoverIDs(context.Background())

	if len(ids) != 1 {
		t.Fatalf("ids: got %v, want one id", ids)
	}
	if stats.PagesEmpty != 1 {
		t.Errorf("PagesEmpty: got %d, want 1", stats.PagesEmpty)
	}
}

func TestExtractFields(t *testing.T) {
	html := `<html><body>
		<h1 data-testid="object-title">  Pen 3-roms med balkong  </h1>
		<span data-testid="pricing-total-price">7 150 000 kr</span>
		<div data-testid="object-address"><span>Gateveien 1</span>, 0357 Oslo</div>
	</body></html>`

	fields, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := fields["object-title"]; got != "Pen 3-roms med balkong" {
		t.Errorf("object-title: got %q", got)
	}
	if got := fields["pricing-total-price"]; got != "7 150 000 kr" {
		t.Errorf("pricing-total-price: got %q", got)
	}
	if got := fields["object-address"]; got != "Gateveien 1, 0357 Oslo" {
		t.Errorf("object-address: got %q", got)
	}
}

func TestExtractLastWriteWins(t *testing.T) {
	html := `<html><body>
		<span data-testid="info-floor">2</span>
		<span data-testid="info-floor">3</span>
	</body></html>`

	fields, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := fields["info-floor"]; got != "3" {
		t.Errorf("info-floor: got %q, want later element's text", got)
	}
}

func TestScrapeAllSkipsDuplicatesAndFailures(t *testing.T) {
	adHTML := `<html><body><h1 data-testid="object-title">Leilighet</h1></body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{
		adURL + "111": adHTML,
		adURL + "222": adHTML,
	}}
	s := New(testConfig(), utils.NewLogger(), fetcher)

	ads, stats := s.ScrapeAll(context.Background(), []string{"111", "222", "111", "999"})

	if len(ads) != 2 {
		t.Fatalf("ads: got %d, want 2", len(ads))
	}
	if ads[0].ID != "111" || ads[1].ID != "222" {
		t.Errorf("order: got %s, %s — want discovery order", ads[0].ID, ads[1].ID)
	}
	if ads[0].URL != adURL+"111" {
		t.Errorf("URL: got %q", ads[0].URL)
	}
	if stats.AdsSkippedDup != 1 {
		t.Errorf("AdsSkippedDup: got %d, want 1", stats.AdsSkippedDup)
	}
	if stats.AdsFailed != 1 {
		t.Errorf("AdsFailed: got %d, want 1", stats.AdsFailed)
	}
}
