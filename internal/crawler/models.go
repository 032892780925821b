package crawler

import "time"

// PageRecord is the stored outcome of one successfully fetched URL.
type PageRecord struct {
	URL          string        // URL as it was queued
	Body         []byte        // Raw page bytes
	StatusCode   int           // HTTP status code
	Depth        int           // Discovery depth (seeds are depth 0 by convention)
	TTFB         time.Duration // Time to first byte
	DownloadTime time.Duration // Total download time
	CrawledAt    time.Time     // Fetch timestamp (UTC)
}

// CrawlStats is a point-in-time snapshot of crawl progress.
type CrawlStats struct {
	PagesStored    int           // Pages fetched and recorded
	RobotsSkipped  int           // URLs denied by robots policy
	DepthDiscarded int           // URLs dropped for exceeding max depth
	FetchErrors    int           // Fetch or per-URL processing failures
	PeakFetches    int           // Highest observed concurrent fetch count
	StartTime      time.Time
	Duration       time.Duration
}
