// Package parser handles the line-oriented system databases the installer
// reads: the locale generation list, the zoneinfo country table and the
// kernel mount table.
package parser

import (
	"sort"
	"strings"
)

// LocaleNames extracts the available locale names from locale.gen content.
// Entries ship commented out; "# " prefixes are stripped before matching.
func LocaleNames(data []byte) []string {
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "# ")
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		// Locale entries look like "en_US.UTF-8 UTF-8"; prose comment lines
		// never carry a codeset in their first token.
		if !strings.Contains(fields[0], ".") {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

// Zoneinfo extracts the timezone names from zone1970.tab content, sorted,
// with UTC prepended as the default choice.
func Zoneinfo(data []byte) []string {
	var zones []string
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		zones = append(zones, fields[2])
	}

	sort.Strings(zones)
	return append([]string{"UTC"}, zones...)
}

// MountEntry is one line of the kernel mount table.
type MountEntry struct {
	Device     string
	MountPoint string
}

// Mounts parses /proc/mounts content into (device, mount point) pairs.
func Mounts(data []byte) []MountEntry {
	var entries []MountEntry
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		entries = append(entries, MountEntry{Device: fields[0], MountPoint: fields[1]})
	}
	return entries
}
