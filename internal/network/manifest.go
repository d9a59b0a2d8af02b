// Package network talks to the release infrastructure: manifest and mirror
// discovery, tarball download and mirror ranking. It owns no kernel-level
// resources; the pipeline treats it as a plain collaborator.
package network

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cadence-os/installkit/internal/cache"
)

// ManifestURL is the canonical release manifest location.
const ManifestURL = "https://releases.cadence-os.org/manifest/recipe.json"

// Manifest is the release recipe: available system variants and the mirrors
// carrying them.
type Manifest struct {
	Variants []Variant `json:"variants"`
	Mirrors  []Mirror  `json:"mirrors"`
}

// Variant is one installable flavor of the distribution.
type Variant struct {
	Name     string    `json:"name"`
	Retro    bool      `json:"retro"`
	Tarballs []Tarball `json:"tarballs"`
}

// Tarball is one release artifact of a variant.
type Tarball struct {
	Arch         string `json:"arch"`
	Date         string `json:"date"`
	Path         string `json:"path"`
	DownloadSize uint64 `json:"downloadSize"`
	InstallSize  uint64 `json:"instSize"`
	SHA256       string `json:"sha256sum"`
}

// Mirror is one download location for release artifacts.
type Mirror struct {
	Name   string `json:"name"`
	Region string `json:"loc"`
	URL    string `json:"url"`
}

// VariantEntry is a flattened, display-ready variant: the newest tarball of
// a variant for the running architecture.
type VariantEntry struct {
	Name        string
	Date        string
	URL         string
	Size        uint64
	InstallSize uint64
	SHA256      string
}

func newClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return client
}

// FetchManifest downloads and decodes the release manifest. The decoded
// manifest is cached; physical media probing never is, but release metadata
// for a pinned URL is stable.
func FetchManifest(url string) (*Manifest, error) {
	if url == "" {
		url = ManifestURL
	}
	if cached := cache.Global().Get("network:manifest:" + url); cached != nil {
		return cached.(*Manifest), nil
	}

	resp, err := newClient().Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("failed to fetch release manifest: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read release manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode release manifest: %w", err)
	}

	cache.Global().SetSlow("network:manifest:"+url, &manifest)
	return &manifest, nil
}

// VariantCandidates flattens the manifest into one entry per variant: the
// newest tarball available for the given architecture, sorted by name.
func VariantCandidates(m *Manifest, arch string) []VariantEntry {
	var entries []VariantEntry
	for _, variant := range m.Variants {
		var newest *Tarball
		for i := range variant.Tarballs {
			tb := &variant.Tarballs[i]
			if tb.Arch != arch {
				continue
			}
			if newest == nil || tb.Date > newest.Date {
				newest = tb
			}
		}
		if newest == nil {
			continue
		}
		entries = append(entries, VariantEntry{
			Name:        variant.Name,
			Date:        newest.Date,
			URL:         newest.Path,
			Size:        newest.DownloadSize,
			InstallSize: newest.InstallSize,
			SHA256:      newest.SHA256,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
