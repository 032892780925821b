// Package crawler implements the core of a polite, concurrent web crawler:
// a depth-tagged URL frontier, per-domain robots-exclusion policies, a
// bounded-connection admission model, and the link-discovery pipeline that
// feeds newly found URLs back into the frontier.
package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/kumocrawl/kumo/internal/config"
)

// idleWait is how long a worker pauses before re-checking an empty frontier
// while sibling workers still hold in-flight URLs.
const idleWait = 25 * time.Millisecond

// Crawler owns the shared crawl state and the worker pool that drains it.
//
// Frontier, visited set, robots cache, downloaded pages and the in-flight
// counter are all guarded by one coarse mutex. That is a deliberate design
// choice: contention on these structures is dwarfed by network time, and a
// single lock keeps the check-and-insert steps (dedup, robots memoization)
// trivially atomic. The page fetch itself runs unlocked; only the robots.txt
// fetch happens under the lock (see RobotsCache).
type Crawler struct {
	cfg          *config.CrawlConfig
	fetcher      Fetcher
	sink         PageSink
	admission    *semaphore.Weighted
	closeFetcher func()

	mu       sync.Mutex
	frontier *Frontier
	visited  map[string]struct{}
	robots   *RobotsCache
	pages    map[string][]byte
	inFlight int

	statsMu       sync.RWMutex
	stats         CrawlStats
	activeFetches int

	activeWorkers int
	workersMu     sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCrawler creates a crawler using the built-in HTTP client as its fetch
// capability. sink may be nil; pages are then kept only in memory.
func NewCrawler(cfg *config.CrawlConfig, sink PageSink) *Crawler {
	client := NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout)
	c := NewCrawlerWithFetcher(cfg, client, sink)
	c.closeFetcher = client.Close
	return c
}

// NewCrawlerWithFetcher creates a crawler with an injected fetch capability.
func NewCrawlerWithFetcher(cfg *config.CrawlConfig, fetcher Fetcher, sink PageSink) *Crawler {
	return &Crawler{
		cfg:       cfg,
		fetcher:   fetcher,
		sink:      sink,
		admission: semaphore.NewWeighted(int64(cfg.MaxConnections)),
		frontier:  NewFrontier(),
		visited:   make(map[string]struct{}),
		robots:    NewRobotsCache(fetcher),
		pages:     make(map[string][]byte),
	}
}

// AddSeed queues an initial URL at the given depth. Seeds pass through the
// same dedup gate as discovered links; a duplicate returns false.
func (c *Crawler) AddSeed(url string, depth int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.visited[url]; seen {
		return false
	}
	c.visited[url] = struct{}{}
	c.frontier.Push(url, depth)
	return true
}

// Start runs the worker pool until the frontier drains or ctx is cancelled.
// When Start returns all workers have been joined and Pages reflects the
// final crawl output.
func (c *Crawler) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	defer c.cancel()

	c.statsMu.Lock()
	c.stats.StartTime = time.Now()
	c.statsMu.Unlock()

	c.mu.Lock()
	seeds := c.frontier.Len()
	c.mu.Unlock()
	slog.Info("starting crawl",
		"seeds", seeds,
		"workers", c.cfg.Concurrency,
		"max_connections", c.cfg.MaxConnections,
		"max_depth", c.cfg.MaxDepth)

	c.activeWorkers = c.cfg.Concurrency
	for i := 0; i < c.cfg.Concurrency; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}

	c.wg.Add(1)
	go c.statsReporter()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("crawl complete", "pages", c.GetStats().PagesStored)
	case <-c.ctx.Done():
		c.wg.Wait()
		slog.Info("crawl cancelled", "pages", c.GetStats().PagesStored)
	}

	return nil
}

// Stop cancels a running crawl and releases transport resources.
func (c *Crawler) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.closeFetcher != nil {
		c.closeFetcher()
	}
}

// Pages returns a snapshot of the downloaded-pages mapping. Each URL appears
// at most once.
func (c *Crawler) Pages() map[string][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string][]byte, len(c.pages))
	for url, body := range c.pages {
		out[url] = body
	}
	return out
}

// GetStats returns current crawl statistics.
func (c *Crawler) GetStats() CrawlStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()

	stats := c.stats
	if !stats.StartTime.IsZero() {
		stats.Duration = time.Since(stats.StartTime)
	}
	return stats
}

// worker drains the frontier until the crawl is done or cancelled. A worker
// may only exit when the frontier is empty and no sibling holds an in-flight
// URL; a sibling that still does might yet enqueue new work.
func (c *Crawler) worker(id int) {
	defer c.wg.Done()
	defer c.handleWorkerExit(id)

	slog.Debug("worker started", "worker_id", id)

	// Per-worker politeness pacing: one delay between successive URLs.
	limiter := rate.NewLimiter(rate.Every(c.cfg.PolitenessDelay), 1)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		item, ok := c.takeNext()
		if !ok {
			if c.drained() {
				slog.Debug("frontier drained, worker exiting", "worker_id", id)
				return
			}
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(idleWait):
			}
			continue
		}

		c.processItem(id, item)
		c.finishItem()

		if err := limiter.Wait(c.ctx); err != nil {
			return
		}
	}
}

func (c *Crawler) handleWorkerExit(id int) {
	c.workersMu.Lock()
	c.activeWorkers--
	if c.activeWorkers == 0 {
		// Last worker out stops the stats reporter.
		c.cancel()
	}
	c.workersMu.Unlock()
	slog.Debug("worker stopped", "worker_id", id)
}

// takeNext pops the next frontier entry and marks it in flight, atomically.
func (c *Crawler) takeNext() (URLInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.frontier.TryPop()
	if ok {
		c.inFlight++
	}
	return item, ok
}

// finishItem retires an in-flight URL after its children, if any, have been
// enqueued. Decrementing only then makes the drained check exact: under the
// same lock, an empty frontier with zero in-flight URLs cannot grow again.
func (c *Crawler) finishItem() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

func (c *Crawler) drained() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frontier.Len() == 0 && c.inFlight == 0
}

// processItem runs one URL through the pipeline: depth cutoff, robots
// verdict, admission-bounded fetch, link discovery, page recording. Every
// failure is contained to this URL; the worker and the crawl carry on.
func (c *Crawler) processItem(id int, item URLInfo) {
	if item.Depth > c.cfg.MaxDepth {
		slog.Debug("dropping URL beyond max depth", "worker_id", id, "url", item.URL, "depth", item.Depth)
		c.countDepthDiscard()
		return
	}

	allowed, err := c.checkRobots(item.URL)
	if err != nil {
		slog.Warn("robots check failed", "worker_id", id, "url", item.URL, "error", err)
		c.countError()
		return
	}
	if !allowed {
		slog.Info("URL disallowed by robots policy", "worker_id", id, "url", item.URL)
		c.countRobotsSkip()
		return
	}

	resp, err := c.fetchPage(item.URL)
	if err != nil {
		slog.Warn("fetch failed", "worker_id", id, "url", item.URL, "error", err)
		c.countError()
		return
	}

	discovered := c.collectLinks(item.URL, resp.Body)
	enqueued := c.enqueueNew(discovered, item.Depth+1)
	c.recordPage(item, resp)

	slog.Info("processed URL",
		"worker_id", id,
		"url", item.URL,
		"status", resp.StatusCode,
		"links", len(discovered),
		"enqueued", enqueued)
}

// checkRobots resolves the robots verdict for one URL. The lookup, including
// a first-access robots.txt fetch, runs under the crawl lock so concurrent
// workers cannot race to fetch the same domain's policy twice.
func (c *Crawler) checkRobots(rawURL string) (bool, error) {
	domain, err := DomainOf(rawURL)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.robots.Resolve(c.ctx, domain, rawURL, c.cfg.UserAgent)
}

// fetchPage downloads one page under the connection admission bound.
func (c *Crawler) fetchPage(rawURL string) (*Response, error) {
	if err := c.admission.Acquire(c.ctx, 1); err != nil {
		return nil, err
	}
	defer c.admission.Release(1)

	c.beginFetch()
	defer c.endFetch()

	return c.fetcher.Get(c.ctx, rawURL)
}

// collectLinks extracts href values from a page and resolves the candidates
// to absolute URLs. Unresolvable links are skipped, not fatal.
func (c *Crawler) collectLinks(baseURL string, body []byte) []string {
	var out []string
	for _, link := range ExtractLinks(body) {
		if !IsCandidate(link) {
			continue
		}
		abs, err := ResolveLink(baseURL, link)
		if err != nil {
			slog.Debug("skipping unresolvable link", "base", baseURL, "link", link)
			continue
		}
		out = append(out, abs)
	}
	return out
}

// enqueueNew pushes not-yet-visited URLs at the given depth. Membership test
// and insertion are one atomic step under the crawl lock, so exactly one of
// any set of concurrent pushes for the same URL survives.
func (c *Crawler) enqueueNew(urls []string, depth int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	enqueued := 0
	for _, u := range urls {
		if _, seen := c.visited[u]; seen {
			continue
		}
		c.visited[u] = struct{}{}
		c.frontier.Push(u, depth)
		enqueued++
	}
	return enqueued
}

// recordPage stores the fetched content in the output mapping and forwards
// it to the sink, if one is configured.
func (c *Crawler) recordPage(item URLInfo, resp *Response) {
	c.mu.Lock()
	c.pages[item.URL] = resp.Body
	c.mu.Unlock()
	c.countStored()

	if c.sink == nil {
		return
	}
	rec := &PageRecord{
		URL:          item.URL,
		Body:         resp.Body,
		StatusCode:   resp.StatusCode,
		Depth:        item.Depth,
		TTFB:         resp.TTFB,
		DownloadTime: resp.DownloadTime,
		CrawledAt:    time.Now().UTC(),
	}
	if err := c.sink.SavePage(rec); err != nil {
		slog.Error("failed to persist page", "url", item.URL, "error", err)
	}
}

// statsReporter periodically logs crawl progress until the crawl ends.
func (c *Crawler) statsReporter() {
	defer c.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			queued := c.frontier.Len()
			inFlight := c.inFlight
			c.mu.Unlock()

			stats := c.GetStats()
			slog.Info("crawl progress",
				"stored", stats.PagesStored,
				"queued", queued,
				"in_flight", inFlight,
				"robots_skipped", stats.RobotsSkipped,
				"errors", stats.FetchErrors,
				"duration", stats.Duration)
		}
	}
}

func (c *Crawler) beginFetch() {
	c.statsMu.Lock()
	c.activeFetches++
	if c.activeFetches > c.stats.PeakFetches {
		c.stats.PeakFetches = c.activeFetches
	}
	c.statsMu.Unlock()
}

func (c *Crawler) endFetch() {
	c.statsMu.Lock()
	c.activeFetches--
	c.statsMu.Unlock()
}

func (c *Crawler) countStored() {
	c.statsMu.Lock()
	c.stats.PagesStored++
	c.statsMu.Unlock()
}

func (c *Crawler) countRobotsSkip() {
	c.statsMu.Lock()
	c.stats.RobotsSkipped++
	c.statsMu.Unlock()
}

func (c *Crawler) countDepthDiscard() {
	c.statsMu.Lock()
	c.stats.DepthDiscarded++
	c.statsMu.Unlock()
}

func (c *Crawler) countError() {
	c.statsMu.Lock()
	c.stats.FetchErrors++
	c.statsMu.Unlock()
}
