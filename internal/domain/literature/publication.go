package literature

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTerm is the keyword search shown on the dashboard
	DefaultTerm = "COVID-19 vaccines"
	// DefaultMaxCount is the number of publications listed by default
	DefaultMaxCount = 10
	// MaxMaxCount is the upper bound accepted for a single search
	MaxMaxCount = 100
	// UntitledPlaceholder is used when a record carries no title
	UntitledPlaceholder = "?"
	// ArticleURLFormat builds the public article page from a PMID
	ArticleURLFormat = "https://pubmed.ncbi.nlm.nih.gov/%s/"
)

// Literature errors
var (
	ErrEmptyTerm           = errors.New("literature: search term is required")
	ErrInvalidMaxCount     = errors.New("literature: max count out of range")
	ErrSearchUnavailable   = errors.New("literature: search service temporarily unavailable")
	ErrSearchRequestFailed = errors.New("literature: search request failed")
	ErrSearchInvalid       = errors.New("literature: invalid search response")
)

// Publication is a single article returned by a search
type Publication struct {
	PMID  string `json:"pmid"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// NewPublication creates a publication, filling in the placeholder title
// and the article URL
func NewPublication(pmid, title string) Publication {
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledPlaceholder
	}
	return Publication{
		PMID:  pmid,
		Title: title,
		URL:   ArticleURL(pmid),
	}
}

// ArticleURL returns the public page of an article
func ArticleURL(pmid string) string {
	return fmt.Sprintf(ArticleURLFormat, pmid)
}

// SearchResult is the outcome of a keyword search
type SearchResult struct {
	Term         string        `json:"term"`
	Count        int           `json:"count"` // total matches reported by the database
	Publications []Publication `json:"publications"`
	RetrievedAt  time.Time     `json:"retrieved_at"`
}

// Query is a validated keyword search
type Query struct {
	Term     string
	MaxCount int
}

// NewQuery validates a search. A zero max count falls back to DefaultMaxCount.
func NewQuery(term string, maxCount int) (Query, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Query{}, ErrEmptyTerm
	}
	if maxCount == 0 {
		maxCount = DefaultMaxCount
	}
	if maxCount < 1 || maxCount > MaxMaxCount {
		return Query{}, fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidMaxCount, maxCount, MaxMaxCount)
	}
	return Query{Term: term, MaxCount: maxCount}, nil
}

// DefaultQuery returns the search shown on the dashboard
func DefaultQuery() Query {
	return Query{Term: DefaultTerm, MaxCount: DefaultMaxCount}
}

// CacheKey returns a stable key for memoizing the query
func (q Query) CacheKey() string {
	return fmt.Sprintf("pubmed:%s:%d", strings.ToLower(q.Term), q.MaxCount)
}
