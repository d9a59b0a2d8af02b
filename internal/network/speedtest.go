package network

import (
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// probePath is a small file every mirror carries, used to time downloads.
const probePath = "/manifest/recipe.json"

// RankMirrors times a small download from every mirror and returns the list
// ordered fastest first. Mirrors that fail the probe sort last.
func RankMirrors(mirrors []Mirror) []Mirror {
	type timing struct {
		mirror  Mirror
		elapsed time.Duration
		ok      bool
	}

	timings := make([]timing, 0, len(mirrors))
	for _, mirror := range mirrors {
		elapsed, err := timeProbe(mirror.URL + probePath)
		if err != nil {
			logrus.Debugf("Mirror %s probe failed: %v", mirror.Name, err)
			timings = append(timings, timing{mirror: mirror})
			continue
		}
		timings = append(timings, timing{mirror: mirror, elapsed: elapsed, ok: true})
	}

	sort.SliceStable(timings, func(i, j int) bool {
		if timings[i].ok != timings[j].ok {
			return timings[i].ok
		}
		return timings[i].elapsed < timings[j].elapsed
	})

	ranked := make([]Mirror, len(timings))
	for i, t := range timings {
		ranked[i] = t.mirror
	}
	return ranked
}

func timeProbe(url string) (time.Duration, error) {
	start := time.Now()
	resp, err := newClient().Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
