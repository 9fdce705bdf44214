package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexServer(t *testing.T, menuBody, tableBody string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		switch r.URL.Path {
		case "/food/menu.json":
			w.Write([]byte(menuBody)) //nolint:errcheck
		case "/food/food_files.json":
			w.Write([]byte(tableBody)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMenuFetch(t *testing.T) {
	srv := newIndexServer(t, `{
  "path": "/food/menu.pdf?1683019800000",
  "name": "menu.pdf",
  "lastModificationDate": "02-05-2023 12:30:00"
}`, "[]", http.StatusOK)

	index := NewPublishedIndex(srv.URL, "/food/menu.json", "/food/food_files.json", time.Second)

	menu, err := index.Menu(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "menu.pdf", menu.Name)
	assert.Equal(t, "/food/menu.pdf?1683019800000", menu.Path)
	assert.Equal(t, "02-05-2023 12:30:00", menu.LastModificationDate)
}

func TestTableFilesFetch(t *testing.T) {
	srv := newIndexServer(t, "{}", `[
  {"name": "2023-04-sm.xlsx", "path": "/food/2023-04-sm.xlsx", "lastModificationDate": "2023-04-01T08:00:00"},
  {"name": "2023-05-sm.xlsx", "path": "/food/2023-05-sm.xlsx", "lastModificationDate": "2023-05-01T08:00:00"}
]`, http.StatusOK)

	index := NewPublishedIndex(srv.URL, "/food/menu.json", "/food/food_files.json", time.Second)

	files, err := index.TableFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "2023-04-sm.xlsx", files[0].Name)
	assert.Equal(t, "/food/2023-05-sm.xlsx", files[1].Path)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := newIndexServer(t, "{}", "[]", http.StatusServiceUnavailable)
	index := NewPublishedIndex(srv.URL, "/food/menu.json", "/food/food_files.json", time.Second)

	_, err := index.Menu(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchMalformedBody(t *testing.T) {
	srv := newIndexServer(t, "<html>not json</html>", "[]", http.StatusOK)
	index := NewPublishedIndex(srv.URL, "/food/menu.json", "/food/food_files.json", time.Second)

	_, err := index.Menu(context.Background())
	require.Error(t, err)
}

func TestFetchHonoursContext(t *testing.T) {
	srv := newIndexServer(t, "{}", "[]", http.StatusOK)
	index := NewPublishedIndex(srv.URL, "/food/menu.json", "/food/food_files.json", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := index.Menu(ctx)
	require.Error(t, err)
}
