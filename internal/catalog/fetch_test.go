package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"recordwatch/internal/components/telemetry"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetcherLoad(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		if r.URL.Query().Get("page") == "404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(pageHTML([]string{"1", "2"},
			item{href: "/products/a", title: "A", price: "€1,00"},
		)))
	}))
	defer server.Close()

	tel := telemetry.NewRecorder()
	fetcher := NewFetcher(FetcherOptions{
		RequestsPerSecond: 50,
		Timeout:           5 * time.Second,
		UserAgent:         "recordwatch-test",
	}, tel)

	doc, err := fetcher.Load(context.Background(), server.URL+"/collections/all?page=1")
	require.NoError(t, err)
	require.Equal(t, "recordwatch-test", userAgent)

	lastPage, err := LastPage(doc)
	require.NoError(t, err)
	require.Equal(t, 2, lastPage)
	require.Empty(t, tel.Broken())

	_, err = fetcher.Load(context.Background(), server.URL+"/collections/all?page=404")
	require.Error(t, err)
	require.True(t, tel.HasBroken(report_fetcher_load))
}

func TestFetcherCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(FetcherOptions{}, telemetry.NewRecorder())
	_, err := fetcher.Load(ctx, server.URL)
	require.Error(t, err)
}

type memoryOutput struct {
	mu    sync.Mutex
	files map[string]string
}

func (m *memoryOutput) Write(id string, contents []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = string(contents)
}

func TestFetcherDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>page</body></html>"))
	}))
	defer server.Close()

	output := &memoryOutput{files: map[string]string{}}
	fetcher := NewFetcher(FetcherOptions{Dump: output}, telemetry.NewRecorder())

	_, err := fetcher.Load(context.Background(), server.URL+"/collections/all?page=1")
	require.NoError(t, err)
	require.Len(t, output.files, 1)
	for _, body := range output.files {
		require.Equal(t, "<html><body>page</body></html>", body)
	}
}
