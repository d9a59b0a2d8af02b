package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cadence-os/installkit/internal/disks"
	"github.com/cadence-os/installkit/internal/network"
)

const sampleRequest = `partition:
  path: /dev/sda2
  parent_path: /dev/sda
  size: 128849018880
variant:
  name: Desktop
  date: "2026-08-01"
  url: /os/desktop-20260801.tar.xz
  size: 3321225472
  installsize: 13884901888
  sha256: bb
mirror:
  name: origin
  url: https://releases.example.org
user: alice
password: hunter2
hostname: mybox
locale: en_US.UTF-8
timezone: Asia/Shanghai
rtc_local: false
swap:
  enabled: true
  size_bytes: 8589934592
  hibernation: false
`

func writeRequest(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "install.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadRequest(t *testing.T) {
	req, err := LoadRequest(writeRequest(t, sampleRequest))
	require.NoError(t, err)

	require.Equal(t, "/dev/sda2", req.Partition.Path)
	require.Equal(t, "/dev/sda", req.Partition.ParentPath)
	// An unspecified filesystem is filled with the default.
	require.Equal(t, disks.DefaultFSType, req.Partition.FSType)
	require.Equal(t, "Desktop", req.Variant.Name)
	require.Equal(t, uint64(13884901888), req.Variant.InstallSize)
	require.Equal(t, "alice", req.User)
	require.True(t, req.Swap.Enabled)
	require.NoError(t, req.Validate())
}

func TestLoadRequestMissing(t *testing.T) {
	_, err := LoadRequest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *InstallRequest {
		return &InstallRequest{
			Partition: disks.Partition{Path: "/dev/sda2", FSType: "ext4", Size: 1 << 37},
			Variant:   network.VariantEntry{Name: "Desktop", URL: "/os/d.tar.xz"},
			Mirror:    network.Mirror{Name: "origin", URL: "https://releases.example.org"},
			User:      "alice",
			Password:  "hunter2",
			Hostname:  "mybox",
			Locale:    "en_US.UTF-8",
			Timezone:  "UTC",
		}
	}
	require.NoError(t, base().Validate())

	req := base()
	req.Partition = disks.Partition{}
	require.Error(t, req.Validate())

	req = base()
	req.User = "root"
	require.Error(t, req.Validate())

	req = base()
	req.Password = ""
	require.Error(t, req.Validate())

	req = base()
	req.Hostname = "-bad"
	require.Error(t, req.Validate())

	req = base()
	req.Timezone = ""
	require.Error(t, req.Validate())

	req = base()
	req.Mirror.URL = ""
	require.Error(t, req.Validate())
}

func TestSaveCompleted(t *testing.T) {
	req, err := LoadRequest(writeRequest(t, sampleRequest))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "saved", "request.yaml")
	require.NoError(t, SaveCompleted(req, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hunter2")
	require.NotContains(t, string(data), "/dev/sda2")

	saved, err := LoadRequest(path)
	require.NoError(t, err)
	require.Equal(t, "alice", saved.User)
	require.Empty(t, saved.Password)
	require.Equal(t, "mybox", saved.Hostname)
}
