package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("G28\nG1 X5\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	local, err := NewDownloader(dir).Fetch(context.Background(), srv.URL+"/a.gcode", "a.gcode")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.gcode"), local)

	content, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "G28\nG1 X5\n", string(content))
}

func TestDownloaderFetchFlattensPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	local, err := NewDownloader(dir).Fetch(context.Background(), srv.URL, "../../etc/evil.gcode")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.gcode"), local)
}

func TestDownloaderFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewDownloader(t.TempDir()).Fetch(context.Background(), srv.URL+"/missing", "m.gcode")
	assert.Error(t, err)
}
