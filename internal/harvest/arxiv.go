// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest pulls paper metadata from the arXiv API into corpus records.
package harvest

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-agent/internal/httputil"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// DefaultArxivURL is the arXiv query endpoint.
const DefaultArxivURL = "https://export.arxiv.org/api/query"

// arXiv asks clients to wait three seconds between calls and caps a page at
// 2000 entries.
const (
	arxivInterval = 3 * time.Second
	arxivMaxPage  = 2000
	userAgent     = "scholar-agent/1.0 (corpus harvester)"
)

// Arxiv pages through arXiv search results.
type Arxiv struct {
	BaseURL  string
	Client   *http.Client
	PageSize int
	Limiter  *rate.Limiter
	Log      *zap.Logger
}

// NewArxiv returns a harvester with arXiv's published rate limit.
func NewArxiv(log *zap.Logger) *Arxiv {
	if log == nil {
		log = zap.NewNop()
	}
	return &Arxiv{
		BaseURL:  DefaultArxivURL,
		Client:   &http.Client{Timeout: 60 * time.Second},
		PageSize: 200,
		Limiter:  rate.NewLimiter(rate.Every(arxivInterval), 1),
		Log:      log,
	}
}

// Query selects the papers to harvest. Search uses the arXiv search_query
// syntax ("cat:cs.CL", "all:retrieval", "au:Vaswani"); bare words are
// matched against all fields.
type Query struct {
	Search string
	Max    int
}

// Fetch returns up to q.Max papers, newest first. A short page ends the
// harvest early.
func (a *Arxiv) Fetch(ctx context.Context, q Query) ([]types.Paper, error) {
	search := searchQuery(q.Search)
	if search == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if q.Max <= 0 {
		return nil, nil
	}

	pageSize := min(max(a.PageSize, 1), arxivMaxPage)
	var out []types.Paper
	for start := 0; len(out) < q.Max; start += pageSize {
		n := min(pageSize, q.Max-len(out))
		page, err := a.page(ctx, search, start, n)
		if err != nil {
			return out, err
		}
		out = append(out, page...)
		a.Log.Info("arXiv page fetched", zap.Int("start", start), zap.Int("entries", len(page)), zap.Int("total", len(out)))
		if len(page) < n {
			break
		}
	}
	return out, nil
}

func (a *Arxiv) page(ctx context.Context, search string, start, n int) ([]types.Paper, error) {
	if a.Limiter != nil {
		if err := a.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("search_query", search)
	params.Set("start", fmt.Sprint(start))
	params.Set("max_results", fmt.Sprint(n))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 3)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if p, ok := e.paper(); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// searchQuery passes field-prefixed queries through and turns bare words
// into an all-fields conjunction.
func searchQuery(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, ":") {
		return s
	}
	terms := strings.Fields(s)
	for i, t := range terms {
		terms[i] = "all:" + t
	}
	return strings.Join(terms, " AND ")
}

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// paper keeps the versioned ID; the agent normalises it when matching.
func (e arxivEntry) paper() (types.Paper, bool) {
	id := entryID(e.ID)
	if id == "" {
		return types.Paper{}, false
	}
	p := types.Paper{
		ExternalID: id,
		Title:      collapse(e.Title),
		Abstract:   collapse(e.Summary),
		URLAbs:     "https://arxiv.org/abs/" + id,
	}
	for _, a := range e.Authors {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		p.Date = t.Format("2006-01-02")
	}
	for _, l := range e.Links {
		switch {
		case l.Title == "pdf":
			p.URLPDF = l.Href
		case l.Rel == "alternate":
			p.URLAbs = l.Href
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			p.Tasks = append(p.Tasks, c.Term)
		}
	}
	return p, true
}

// entryID pulls the arXiv ID from an entry URL such as
// http://arxiv.org/abs/2301.07041v1.
func entryID(idURL string) string {
	const prefix = "/abs/"
	i := strings.Index(idURL, prefix)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(idURL[i+len(prefix):])
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
