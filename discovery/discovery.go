// Package discovery drives the ProteomeXchange search UI with a headless
// browser and harvests dataset accessions from the result pages. The search
// results render client-side, so a plain HTTP fetch sees an empty shell;
// everything else in this tool goes through internal/httpclient instead.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
)

// DefaultBaseURL is the ProteomeXchange dataset search UI.
const DefaultBaseURL = "https://proteomecentral.proteomexchange.org/ui"

// DefaultPageLimit bounds how many result pages one search walks.
const DefaultPageLimit = 5

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultPageDelay         = 2 * time.Second

	// stableWindow is how long the page must stop mutating before we
	// trust that the result table has finished rendering.
	stableWindow = 2 * time.Second
)

// nextSelector matches the pager's forward control.
const nextSelector = `a[aria-label="Next"], button[aria-label="Next"]`

// Config configures a Discoverer.
type Config struct {
	// BaseURL overrides the search UI endpoint, mainly for tests.
	BaseURL string
	// Headless hides the browser window. The CLI sets this from
	// discovery.headless; headful runs help when debugging selectors.
	Headless bool
	// PageLimit caps how many result pages to walk. Zero means
	// DefaultPageLimit.
	PageLimit int
	// NavigationTimeout bounds each page navigation. Zero means 30s.
	NavigationTimeout time.Duration
	// PageDelay is the politeness pause between result pages. Zero
	// means 2s.
	PageDelay time.Duration
	// Logger defaults to the package-level logger when nil.
	Logger *zap.SugaredLogger
}

// Discoverer walks dataset search results and collects accessions.
type Discoverer struct {
	baseURL    string
	headless   bool
	pageLimit  int
	navTimeout time.Duration
	pageDelay  time.Duration
	logger     *zap.SugaredLogger
}

// NewDiscoverer creates a Discoverer for the search UI.
func NewDiscoverer(config Config) *Discoverer {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	pageLimit := config.PageLimit
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	navTimeout := config.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	pageDelay := config.PageDelay
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	log := config.Logger
	if log == nil {
		log = logger.Logger
	}
	return &Discoverer{
		baseURL:    baseURL,
		headless:   config.Headless,
		pageLimit:  pageLimit,
		navTimeout: navTimeout,
		pageDelay:  pageDelay,
		logger:     log,
	}
}

// SearchURL returns the results page for a keyword.
func (d *Discoverer) SearchURL(keyword string) string {
	return fmt.Sprintf("%s?view=datasets&search=%s", d.baseURL, url.QueryEscape(keyword))
}

// Discover searches for keyword and returns the accessions of every dataset
// on the first pageLimit result pages, in display order, deduplicated.
//
// The walk stops early when the pager runs out, stops advancing, or the
// context is cancelled. Accessions harvested before an early stop are
// returned alongside the error.
func (d *Discoverer) Discover(ctx context.Context, keyword string) ([]px.Accession, error) {
	controlURL, err := launcher.New().Headless(d.headless).Launch()
	if err != nil {
		return nil, errors.Wrap(err, "failed to launch browser")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to browser")
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open page")
	}
	defer page.Close()

	searchURL := d.SearchURL(keyword)
	d.logger.Infow("searching registry",
		"keyword", keyword,
		"url", searchURL)

	if err := page.Timeout(d.navTimeout).Navigate(searchURL); err != nil {
		return nil, errors.Wrapf(err, "failed to navigate to %s", searchURL)
	}

	seen := make(map[px.Accession]struct{})
	var accessions []px.Accession

	for pageNum := 1; ; pageNum++ {
		// Results and the pager render client-side after load.
		_ = page.WaitStable(stableWindow)

		html, err := page.HTML()
		if err != nil {
			return accessions, errors.Wrap(err, "failed to read search results")
		}

		added := 0
		for _, acc := range ExtractAccessions(html) {
			if _, dup := seen[acc]; dup {
				continue
			}
			seen[acc] = struct{}{}
			accessions = append(accessions, acc)
			added++
		}
		d.logger.Debugw("search page harvested",
			"page", pageNum,
			"new", added,
			"total", len(accessions))

		if pageNum >= d.pageLimit {
			break
		}
		if added == 0 && pageNum > 1 {
			// The pager kept a live Next control but the results
			// stopped changing.
			d.logger.Debugw("search results stopped advancing", "page", pageNum)
			break
		}

		has, next, err := page.Has(nextSelector)
		if err != nil || !has {
			break
		}
		if err := next.Click(proto.InputMouseButtonLeft, 1); err != nil {
			d.logger.Debugw("next control did not respond",
				"page", pageNum,
				"error", err)
			break
		}

		select {
		case <-time.After(d.pageDelay):
		case <-ctx.Done():
			return accessions, ctx.Err()
		}
	}

	d.logger.Infow("discovery finished",
		"keyword", keyword,
		"accessions", len(accessions))
	return accessions, nil
}
