package parser

import (
	"errors"
	"os"
)

const (
	localeGenPath = "/etc/locale.gen"
	zoneinfoPath  = "/usr/share/zoneinfo/zone1970.tab"
)

// LoadLocales returns the locales available on the live system.
func LoadLocales() ([]string, error) {
	data, err := os.ReadFile(localeGenPath)
	if err != nil {
		return nil, err
	}
	names := LocaleNames(data)
	if len(names) == 0 {
		return nil, errors.New("no locales found in locale.gen")
	}
	return names, nil
}

// LoadZoneinfo returns the timezones available on the live system.
func LoadZoneinfo() ([]string, error) {
	data, err := os.ReadFile(zoneinfoPath)
	if err != nil {
		return nil, err
	}
	zones := Zoneinfo(data)
	if len(zones) <= 1 {
		return nil, errors.New("empty timezone data; tzdata missing?")
	}
	return zones, nil
}
