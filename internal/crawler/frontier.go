package crawler

// URLInfo is one frontier entry: a URL tagged with the link-discovery depth
// at which it was found. Seeds carry depth 0.
type URLInfo struct {
	URL   string
	Depth int
}

// Frontier is a FIFO queue of URLs waiting to be crawled. It is not
// internally synchronized; callers serialize access through the crawl lock.
type Frontier struct {
	items []URLInfo
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{}
}

// Push appends a URL at the given depth.
func (f *Frontier) Push(url string, depth int) {
	f.items = append(f.items, URLInfo{URL: url, Depth: depth})
}

// Pop removes and returns the oldest entry, or ErrEmptyFrontier.
func (f *Frontier) Pop() (URLInfo, error) {
	if len(f.items) == 0 {
		return URLInfo{}, ErrEmptyFrontier
	}
	item := f.items[0]
	f.items = f.items[1:]
	return item, nil
}

// TryPop is the non-error form of Pop for callers that poll.
func (f *Frontier) TryPop() (URLInfo, bool) {
	item, err := f.Pop()
	if err != nil {
		return URLInfo{}, false
	}
	return item, true
}

// Len reports how many URLs are queued.
func (f *Frontier) Len() int {
	return len(f.items)
}
