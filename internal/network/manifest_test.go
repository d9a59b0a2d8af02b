package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
	"variants": [
		{
			"name": "Desktop",
			"retro": false,
			"tarballs": [
				{"arch": "amd64", "date": "2026-07-01", "path": "/os/desktop-20260701.tar.xz",
				 "downloadSize": 3221225472, "instSize": 12884901888, "sha256sum": "aa"},
				{"arch": "amd64", "date": "2026-08-01", "path": "/os/desktop-20260801.tar.xz",
				 "downloadSize": 3321225472, "instSize": 13884901888, "sha256sum": "bb"},
				{"arch": "arm64", "date": "2026-08-15", "path": "/os/desktop-arm64.tar.xz",
				 "downloadSize": 1, "instSize": 2, "sha256sum": "cc"}
			]
		},
		{
			"name": "Base",
			"retro": false,
			"tarballs": [
				{"arch": "amd64", "date": "2026-08-01", "path": "/os/base-20260801.tar.xz",
				 "downloadSize": 1073741824, "instSize": 4294967296, "sha256sum": "dd"}
			]
		},
		{
			"name": "Server",
			"retro": false,
			"tarballs": [
				{"arch": "riscv64", "date": "2026-08-01", "path": "/os/server-riscv.tar.xz",
				 "downloadSize": 1, "instSize": 2, "sha256sum": "ee"}
			]
		}
	],
	"mirrors": [
		{"name": "origin", "loc": "Global", "url": "https://releases.example.org"}
	]
}`

func TestFetchManifest(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleManifest))
	}))
	defer srv.Close()

	manifest, err := FetchManifest(srv.URL)
	require.NoError(t, err)
	require.Len(t, manifest.Variants, 3)
	require.Len(t, manifest.Mirrors, 1)
	require.Equal(t, "origin", manifest.Mirrors[0].Name)
	require.Equal(t, "Global", manifest.Mirrors[0].Region)
	require.Equal(t, 1, hits)

	// A repeat fetch of the same URL is served from the cache.
	again, err := FetchManifest(srv.URL)
	require.NoError(t, err)
	require.Same(t, manifest, again)
	require.Equal(t, 1, hits)
}

func TestFetchManifestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := FetchManifest(srv.URL)
	require.Error(t, err)
}

func TestVariantCandidates(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleManifest))
	}))
	defer srv.Close()

	manifest, err := FetchManifest(srv.URL)
	require.NoError(t, err)

	entries := VariantCandidates(manifest, "amd64")
	require.Len(t, entries, 2)

	// Sorted by name, and only the newest tarball per variant survives.
	require.Equal(t, "Base", entries[0].Name)
	require.Equal(t, "Desktop", entries[1].Name)
	require.Equal(t, "2026-08-01", entries[1].Date)
	require.Equal(t, "/os/desktop-20260801.tar.xz", entries[1].URL)
	require.Equal(t, uint64(13884901888), entries[1].InstallSize)
	require.Equal(t, "bb", entries[1].SHA256)

	require.Len(t, VariantCandidates(manifest, "riscv64"), 1)
	require.Empty(t, VariantCandidates(manifest, "loong64"))
}
