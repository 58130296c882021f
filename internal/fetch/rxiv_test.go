// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

func rxivTestConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "research-briefing-test"},
		Biorxiv: types.SourceConfig{
			Enabled:    true,
			Categories: []string{"bioinformatics"},
			MaxResults: 300,
		},
	}
}

func rxivDetailFixture(i int) rxivDetail {
	return rxivDetail{
		DOI:      fmt.Sprintf("10.1101/2025.06.09.%06d", i),
		Title:    fmt.Sprintf("Preprint %d", i),
		Authors:  "Doe, J.; Roe, R.",
		Abstract: "An abstract.",
		Date:     "2025-06-09",
		Category: "bioinformatics",
		Server:   "biorxiv",
	}
}

// rxivPagingHandler serves `total` details across cursor pages of 100.
func rxivPagingHandler(t *testing.T, total int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Helper()
		// Path: /biorxiv/2025-06-08/2025-06-09/{cursor}/json
		parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/json"), "/")
		cursor, err := strconv.Atoi(parts[len(parts)-1])
		require.NoError(t, err)
		assert.Equal(t, "bioinformatics", r.URL.Query().Get("category"))

		var page rxivResponse
		for i := cursor; i < total && i < cursor+rxivPageSize; i++ {
			page.Collection = append(page.Collection, rxivDetailFixture(i))
		}
		page.Messages = []rxivMessage{{Count: len(page.Collection), Total: strconv.Itoa(total)}}
		json.NewEncoder(w).Encode(page)
	}
}

func TestRxivFetchPagesThroughCursor(t *testing.T) {
	srv := httptest.NewServer(rxivPagingHandler(t, 250))
	defer srv.Close()

	orig := rxivAPIBase
	rxivAPIBase = srv.URL
	defer func() { rxivAPIBase = orig }()

	src := &RxivSource{Client: srv.Client(), Server: "biorxiv"}
	window := Window{From: day("2025-06-08"), To: day("2025-06-09")}
	papers, err := src.Fetch(context.Background(), window, rxivTestConfig())
	require.NoError(t, err)

	assert.Len(t, papers, 250, "all cursor pages consumed")

	p := papers[0]
	assert.Equal(t, "biorxiv:10.1101/2025.06.09.000000", p.ID)
	assert.Equal(t, "Preprint 0", p.Title)
	assert.Equal(t, []string{"Doe, J.", "Roe, R."}, p.Authors)
	assert.Equal(t, "https://www.biorxiv.org/content/10.1101/2025.06.09.000000", p.URL)
	assert.Equal(t, "https://www.biorxiv.org/content/10.1101/2025.06.09.000000.full.pdf", p.PDFURL)
	assert.Equal(t, "biorxiv", p.Platform)
	assert.Equal(t, []string{"bioinformatics"}, p.Categories)
	assert.Equal(t, "2025-06-09", p.Published.Format("2006-01-02"))
}

func TestRxivFetchHonorsMaxResults(t *testing.T) {
	srv := httptest.NewServer(rxivPagingHandler(t, 250))
	defer srv.Close()

	orig := rxivAPIBase
	rxivAPIBase = srv.URL
	defer func() { rxivAPIBase = orig }()

	src := &RxivSource{Client: srv.Client(), Server: "biorxiv"}
	cfg := rxivTestConfig()
	cfg.Biorxiv.MaxResults = 120
	papers, err := src.Fetch(context.Background(), Window{From: day("2025-06-08"), To: day("2025-06-09")}, cfg)
	require.NoError(t, err)
	assert.Len(t, papers, 120)
}

func TestRxivFetchMedrxivServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/medrxiv/"), "path = %s", r.URL.Path)
		page := rxivResponse{Collection: []rxivDetail{rxivDetailFixture(1)}}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	orig := rxivAPIBase
	rxivAPIBase = srv.URL
	defer func() { rxivAPIBase = orig }()

	src := &RxivSource{Client: srv.Client(), Server: "medrxiv"}
	cfg := types.FetchConfig{
		Medrxiv: types.SourceConfig{Enabled: true, Categories: []string{"infectious diseases"}, MaxResults: 10},
	}
	papers, err := src.Fetch(context.Background(), Window{From: day("2025-06-08"), To: day("2025-06-09")}, cfg)
	require.NoError(t, err)

	require.Len(t, papers, 1)
	assert.Equal(t, "medrxiv:10.1101/2025.06.09.000001", papers[0].ID)
	assert.Equal(t, "medrxiv", papers[0].Platform)
	assert.Contains(t, papers[0].URL, "www.medrxiv.org")
}

func TestRxivFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	orig := rxivAPIBase
	rxivAPIBase = srv.URL
	defer func() { rxivAPIBase = orig }()

	src := &RxivSource{Client: srv.Client(), Server: "biorxiv"}
	_, err := src.Fetch(context.Background(), Window{From: day("2025-06-08"), To: day("2025-06-09")}, rxivTestConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}
