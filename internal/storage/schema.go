package storage

const schemaSQL = `
-- One row per successfully fetched URL. The crawler deduplicates at enqueue
-- time, so url is naturally unique; INSERT OR REPLACE keeps re-runs against
-- the same database idempotent.
CREATE TABLE IF NOT EXISTS pages (
    url TEXT PRIMARY KEY NOT NULL,
    body BLOB NOT NULL,
    status_code INTEGER NOT NULL,
    depth INTEGER NOT NULL DEFAULT 0,
    ttfb_ms INTEGER,
    download_time_ms INTEGER,
    crawled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pages_depth ON pages(depth);
CREATE INDEX IF NOT EXISTS idx_pages_crawled_at ON pages(crawled_at);

-- Summary view used by the post-crawl report
CREATE VIEW IF NOT EXISTS crawl_summary AS
SELECT
    COUNT(*) AS page_count,
    SUM(LENGTH(body)) AS total_bytes,
    MAX(depth) AS max_depth,
    MIN(crawled_at) AS first_page,
    MAX(crawled_at) AS last_page
FROM pages;
`
