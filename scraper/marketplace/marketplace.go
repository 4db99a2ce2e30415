package marketplace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"agriconnect/config"
	"agriconnect/models"
	"agriconnect/utils"
)

const source = "marketplace"

// PageFetcher returns the rendered HTML of a page.
type PageFetcher func(ctx context.Context, url string) (string, error)

// Scraper walks the marketplace listing pages and visits every farm's detail
// page to collect its crops.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	pool    *utils.WorkerPool
	visited *utils.KeySet
	retry   *utils.RetryConfig
	fetch   PageFetcher

	mu    sync.Mutex
	farms []*models.RawFarm
}

// New creates a Scraper that renders pages in headless Chrome.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return NewWithFetcher(cfg, logger, nil)
}

// NewWithFetcher creates a Scraper that loads pages through fetch. A nil fetch
// means headless Chrome.
func NewWithFetcher(cfg *config.Config, logger *utils.Logger, fetch PageFetcher) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visited: utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		fetch: fetch,
	}
}

// LoadRaw scrapes the marketplace; it lets the scraper act as a raw catalog source.
func (s *Scraper) LoadRaw(ctx context.Context) ([]*models.RawFarm, error) {
	return s.Scrape(ctx)
}

// Scrape drives pagination and detail-page scraping.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.RawFarm, error) {
	if s.cfg.MarketplaceURL == "" {
		return nil, fmt.Errorf("marketplace: MARKETPLACE_URL is not set")
	}
	s.logger.Info("[marketplace] Starting scrape — target: %d pages from %s",
		s.cfg.PagesToScrape, s.cfg.MarketplaceURL)

	fetch := s.fetch
	if fetch == nil {
		browserCtx, cancel := s.newBrowser(ctx)
		defer cancel()
		fetch = func(_ context.Context, url string) (string, error) {
			return renderPage(browserCtx, url)
		}
	}

	s.mu.Lock()
	s.farms = make([]*models.RawFarm, 0)
	s.mu.Unlock()

	currentURL := s.cfg.MarketplaceURL
	for page := 1; page <= s.cfg.PagesToScrape; page++ {
		if err := ctx.Err(); err != nil {
			return s.collected(), err
		}
		s.visited.Add("page", currentURL)
		s.logger.Info("[marketplace] Scraping page %d — URL: %s", page, currentURL)

		var html string
		err := s.retry.DoContext(ctx, fmt.Sprintf("listing-page-%d", page), func(ctx context.Context) error {
			var err error
			html, err = fetch(ctx, currentURL)
			return err
		})
		if err != nil {
			s.logger.Error("[marketplace] Page %d failed: %v", page, err)
			break
		}

		cards, nextURL, err := ParseListingPage(html, currentURL)
		if err != nil {
			s.logger.Error("[marketplace] Page %d unparsable: %v", page, err)
			break
		}

		pageFarms := make([]*models.RawFarm, 0, len(cards))
		scrapedAt := time.Now()
		for _, f := range cards {
			if f.ID == "" {
				continue
			}
			if !s.visited.Add("farm", f.ID) {
				s.logger.Debug("[marketplace] Skipping duplicate farm: %s", f.ID)
				continue
			}
			f.ScrapedAt = scrapedAt
			f.Source = source
			pageFarms = append(pageFarms, f)
		}

		if len(pageFarms) == 0 {
			s.logger.Warn("[marketplace] Page %d returned 0 new farms — stopping", page)
			break
		}

		s.enrichFarms(ctx, fetch, pageFarms)

		s.mu.Lock()
		s.farms = append(s.farms, pageFarms...)
		total := len(s.farms)
		s.mu.Unlock()

		s.logger.Info("[marketplace] Page %d done — collected %d farms so far", page, total)

		if nextURL == "" {
			break
		}
		if s.visited.Contains("page", nextURL) {
			s.logger.Warn("[marketplace] Page %s already visited — stopping", nextURL)
			break
		}
		currentURL = nextURL
	}

	farms := s.collected()
	s.logger.Info("[marketplace] Scrape complete — total raw farms: %d from %d pages (%d detail pages)",
		len(farms), s.visited.Count("page"), s.visited.Count("detail"))
	return farms, nil
}

func (s *Scraper) collected() []*models.RawFarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.RawFarm(nil), s.farms...)
}

// enrichFarms visits detail pages through the worker pool.
func (s *Scraper) enrichFarms(ctx context.Context, fetch PageFetcher, farms []*models.RawFarm) {
	for _, farm := range farms {
		f := farm
		if f.URL == "" {
			s.logger.Warn("[marketplace] Farm %s has no detail link", f.ID)
			continue
		}
		if !s.visited.Add("detail", f.URL) {
			s.logger.Debug("[marketplace] Detail page %s already fetched", f.URL)
			continue
		}

		s.pool.Submit(func() {
			var html string
			err := s.retry.DoContext(ctx, "detail-page", func(ctx context.Context) error {
				var err error
				html, err = fetch(ctx, f.URL)
				return err
			})
			if err != nil {
				s.logger.Warn("[marketplace] Detail page failed for %s: %v", f.URL, err)
				return
			}
			if err := ParseDetailPage(html, f); err != nil {
				s.logger.Warn("[marketplace] Detail page unparsable for %s: %v", f.URL, err)
				return
			}
			s.logger.Debug("[marketplace] Enriched %s with %d crops", f.ID, len(f.Crops))
		})
	}
	s.pool.Wait()
}

func (s *Scraper) newBrowser(parent context.Context) (context.Context, context.CancelFunc) {
	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[marketplace] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// renderPage opens url in a new tab and returns the rendered document.
func renderPage(browserCtx context.Context, url string) (string, error) {
	ctx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	return html, nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the configured one.
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
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
