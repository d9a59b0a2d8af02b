package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cadence-os/installkit/internal/disks"
	"github.com/cadence-os/installkit/internal/guest"
	"github.com/cadence-os/installkit/internal/network"
)

// SwapConfig describes the swapfile the pipeline should create.
type SwapConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	SizeBytes   uint64 `yaml:"size_bytes,omitempty" json:"size_bytes,omitempty"`
	Hibernation bool   `yaml:"hibernation" json:"hibernation"`
}

// InstallRequest aggregates every user choice one install run needs. It is
// built up front (interactively or from a file) and is immutable once the
// pipeline starts.
type InstallRequest struct {
	Partition disks.Partition      `yaml:"partition" json:"partition"`
	Variant   network.VariantEntry `yaml:"variant" json:"variant"`
	Mirror    network.Mirror       `yaml:"mirror" json:"mirror"`
	User      string               `yaml:"user" json:"user"`
	Password  string               `yaml:"password" json:"-"`
	Hostname  string               `yaml:"hostname" json:"hostname"`
	Locale    string               `yaml:"locale" json:"locale"`
	Timezone  string               `yaml:"timezone" json:"timezone"`
	RTCLocal  bool                 `yaml:"rtc_local" json:"rtc_local"`
	Swap      SwapConfig           `yaml:"swap" json:"swap"`
}

// Validate rejects a request the pipeline must not even start on. Validator
// checks that need device probing run later, inside the pipeline, but still
// before any destructive step.
func (r *InstallRequest) Validate() error {
	if !r.Partition.Usable() {
		return fmt.Errorf("no usable target partition specified")
	}
	if !guest.AcceptableUsername(r.User) {
		return fmt.Errorf("unacceptable username %q", r.User)
	}
	if r.Password == "" {
		return fmt.Errorf("no password specified")
	}
	if !guest.ValidHostname(r.Hostname) {
		return fmt.Errorf("invalid hostname %q", r.Hostname)
	}
	if r.Locale == "" || r.Timezone == "" {
		return fmt.Errorf("locale and timezone must be set")
	}
	if r.Variant.URL == "" || r.Mirror.URL == "" {
		return fmt.Errorf("release variant and mirror must be set")
	}
	return nil
}

// LoadRequest reads an install request from a YAML file, probing default
// locations when path is empty.
func LoadRequest(path string) (*InstallRequest, error) {
	if path == "" {
		candidates := []string{
			"/etc/installkit/install.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/installkit/install.yaml"),
			"install.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}
	if path == "" {
		return nil, fmt.Errorf("no install request file found")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read install request: %w", err)
	}

	var req InstallRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse install request: %w", err)
	}

	req.Partition = disks.FillFilesystem(req.Partition, false)
	return &req, nil
}

// SaveCompleted persists the choices of a finished run, minus the password
// and the partition (a later machine may be partitioned differently), so a
// reinstall can start pre-filled.
func SaveCompleted(req *InstallRequest, path string) error {
	saved := *req
	saved.Password = ""
	saved.Partition = disks.Partition{}

	data, err := yaml.Marshal(&saved)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
