// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lyangfan/research-daily-briefing/internal/httputil"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// rxivAPIBase is the Cold Spring Harbor details endpoint serving both
// bioRxiv and medRxiv. Declared as a var so tests can substitute an
// httptest server.
var rxivAPIBase = "https://api.biorxiv.org/details"

// rxivPageSize is the fixed page size of the details API; a page with
// fewer entries is the last one.
const rxivPageSize = 100

// RxivSource queries the bioRxiv details API. The same API serves
// medRxiv under a different server path, so one source type covers both
// platforms.
type RxivSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Server  string // "biorxiv" or "medrxiv"
}

// Name returns the source identifier.
func (s *RxivSource) Name() string { return s.Server }

// Fetch pages through the details API for the window, one pass per
// configured category. The API exposes an interval endpoint with cursor
// paging; entries outside the requested categories are filtered out
// server-side via the category parameter.
func (s *RxivSource) Fetch(ctx context.Context, window Window, cfg types.FetchConfig) ([]types.Paper, error) {
	sc := s.sourceConfig(cfg)
	if len(sc.Categories) == 0 {
		return nil, fmt.Errorf("no %s categories configured", s.Server)
	}

	maxResults := sc.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	var papers []types.Paper
	for _, category := range sc.Categories {
		fetched, err := s.fetchCategory(ctx, window, cfg, category, maxResults-len(papers))
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		papers = append(papers, fetched...)
		if len(papers) >= maxResults {
			papers = papers[:maxResults]
			break
		}
	}
	return papers, nil
}

func (s *RxivSource) sourceConfig(cfg types.FetchConfig) types.SourceConfig {
	if s.Server == "medrxiv" {
		return cfg.Medrxiv
	}
	return cfg.Biorxiv
}

func (s *RxivSource) fetchCategory(ctx context.Context, window Window, cfg types.FetchConfig, category string, limit int) ([]types.Paper, error) {
	var papers []types.Paper
	for cursor := 0; ; cursor += rxivPageSize {
		page, err := s.fetchPage(ctx, window, cfg, category, cursor)
		if err != nil {
			return nil, err
		}

		for _, d := range page.Collection {
			papers = append(papers, s.toPaper(d))
			if len(papers) >= limit {
				return papers, nil
			}
		}

		if len(page.Collection) < rxivPageSize {
			return papers, nil
		}
	}
}

func (s *RxivSource) fetchPage(ctx context.Context, window Window, cfg types.FetchConfig, category string, cursor int) (*rxivResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/%s/%d/json?category=%s",
		rxivAPIBase, s.Server,
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"),
		cursor, url.QueryEscape(category))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%s API request: %w", s.Server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API returned HTTP %d", s.Server, resp.StatusCode)
	}

	var page rxivResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", s.Server, err)
	}
	return &page, nil
}

func (s *RxivSource) toPaper(d rxivDetail) types.Paper {
	contentBase := "https://www.biorxiv.org/content/"
	if s.Server == "medrxiv" {
		contentBase = "https://www.medrxiv.org/content/"
	}

	p := types.Paper{
		ID:       s.Server + ":" + d.DOI,
		Title:    strings.TrimSpace(d.Title),
		Abstract: strings.TrimSpace(d.Abstract),
		URL:      contentBase + d.DOI,
		PDFURL:   contentBase + d.DOI + ".full.pdf",
		Platform: s.Server,
	}
	if d.Category != "" {
		p.Categories = []string{d.Category}
	}
	// Authors arrive as one semicolon-separated string.
	for _, a := range strings.Split(d.Authors, ";") {
		if name := strings.TrimSpace(a); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if t, err := time.Parse("2006-01-02", d.Date); err == nil {
		p.Published = t
	}
	return p
}

// bioRxiv details API JSON structures.
type rxivResponse struct {
	Collection []rxivDetail  `json:"collection"`
	Messages   []rxivMessage `json:"messages"`
}

type rxivDetail struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	Date     string `json:"date"`
	Category string `json:"category"`
	Server   string `json:"server"`
}

type rxivMessage struct {
	Cursor string `json:"cursor"`
	Count  int    `json:"count"`
	Total  string `json:"total"`
}
