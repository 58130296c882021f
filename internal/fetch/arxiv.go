// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lyangfan/research-daily-briefing/internal/httputil"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// arxivAPIBase is the arXiv export endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSource queries the arXiv export API.
type ArxivSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the source identifier.
func (s *ArxivSource) Name() string { return "arxiv" }

// Fetch queries arXiv for papers in the configured categories submitted
// within the window.
func (s *ArxivSource) Fetch(ctx context.Context, window Window, cfg types.FetchConfig) ([]types.Paper, error) {
	categories := cfg.Arxiv.Categories
	if len(categories) == 0 {
		return nil, fmt.Errorf("no arXiv categories configured")
	}

	maxResults := cfg.Arxiv.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	params := url.Values{}
	params.Set("search_query", buildArxivQuery(categories, window))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
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

	var papers []types.Paper
	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		p := types.Paper{
			ID:       "arxiv:" + arxivID,
			Title:    collapseWhitespace(entry.Title),
			Abstract: collapseWhitespace(entry.Summary),
			URL:      "https://arxiv.org/abs/" + arxivID,
			PDFURL:   "https://arxiv.org/pdf/" + arxivID,
			Platform: "arxiv",
		}
		for _, a := range entry.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		for _, c := range entry.Categories {
			p.Categories = append(p.Categories, c.Term)
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			p.Published = t
		}

		papers = append(papers, p)
	}
	return papers, nil
}

// buildArxivQuery constructs the search_query parameter: the category
// disjunction constrained to the submission window. arXiv's
// submittedDate bounds are YYYYMMDDHHMM timestamps.
func buildArxivQuery(categories []string, window Window) string {
	terms := make([]string, len(categories))
	for i, c := range categories {
		terms[i] = "cat:" + c
	}
	return fmt.Sprintf("(%s) AND submittedDate:[%s0000 TO %s2359]",
		strings.Join(terms, " OR "),
		window.From.Format("20060102"),
		window.To.Format("20060102"))
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// collapseWhitespace joins the hard-wrapped lines arXiv returns in
// titles and abstracts into single-space-separated text.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
