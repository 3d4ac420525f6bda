package tethys

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tethys-harvester/internal/model"
	"tethys-harvester/pkg/logging"
)

func TestCatalogSortedAndComplete(t *testing.T) {
	files := Catalog("")

	want := 0
	for _, subtags := range TagSubtags {
		want += len(subtags)
	}
	require.Len(t, files, want)

	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	assert.True(t, sort.StringsAreSorted(ids), "catalog must be sorted by identifier")

	byID := map[string]RemoteFile{}
	for _, f := range files {
		byID[f.ID] = f
	}
	chem, ok := byID["stressor-chemicals"]
	require.True(t, ok)
	assert.Equal(t, DefaultBaseURL+"/stressor/chemicals", chem.URL)
}

func TestPageURLSuffixRule(t *testing.T) {
	// The first page has no suffix; page N has "?page=N".
	assert.Equal(t, "https://x/stressor/noise", PageURL("https://x", "stressor", "noise", 0))
	assert.Equal(t, "https://x/stressor/noise?page=1", PageURL("https://x", "stressor", "noise", 1))
	assert.Equal(t, "https://x/stressor/noise?page=7", PageURL("https://x", "stressor", "noise", 7))
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stressor/chemicals" && r.URL.Query().Get("page") == "" {
			io.WriteString(w, "title\tdate\npaper\t2018\n")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logging.NewNop())

	body, err := c.Fetch(context.Background(), "stressor-chemicals")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "paper\t2018")
}

func TestClientFetchWalksListingPages(t *testing.T) {
	// A listing spanning three pages: the fetched body must carry every
	// page's rows under a single header.
	pages := map[string]string{
		"":  "title\tdate\npaper one\t2018\n",
		"1": "title\tdate\npaper two\t2018\n",
		"2": "title\tdate\npaper three\t2017\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stressor/chemicals" {
			http.NotFound(w, r)
			return
		}
		body, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logging.NewNop())

	body, err := c.Fetch(context.Background(), "stressor-chemicals")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "paper one\t2018")
	assert.Contains(t, got, "paper two\t2018")
	assert.Contains(t, got, "paper three\t2017")
	assert.Equal(t, 1, strings.Count(got, "title\tdate"), "header must appear once")
}

func TestClientFetchUnknownIdentifier(t *testing.T) {
	c := NewClient("https://example.invalid", time.Second, logging.NewNop())

	_, err := c.Fetch(context.Background(), "no-such-file")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
}

func TestClientFetchRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("page") != "" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "title\tdate\npaper\t2018\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logging.NewNop())

	body, err := c.Fetch(context.Background(), "stressor-chemicals")
	require.NoError(t, err)
	body.Close()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestClientFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logging.NewNop())
	_, err := c.Fetch(context.Background(), "stressor-chemicals")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
}

func TestStubSourceCountsCalls(t *testing.T) {
	s := &StubSource{Files: map[string]string{"a": "x", "b": "y"}}

	listing, err := s.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, listing, 2)
	assert.Equal(t, "a", listing[0].ID)

	body, err := s.Fetch(context.Background(), "a")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "x", string(data))

	list, fetch := s.Calls()
	assert.Equal(t, 1, list)
	assert.Equal(t, 1, fetch)
}
