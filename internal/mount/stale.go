package mount

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cadence-os/installkit/internal/parser"
)

// MountDirPrefix marks the temporary directories this installer mounts guest
// roots under.
const MountDirPrefix = "/tmp/.ikmount"

// DetachStale unmounts guest roots left behind by a previous installer run
// that was killed hard. Best effort; called before the mounting phase.
func DetachStale() {
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return
	}
	for _, entry := range parser.Mounts(data) {
		if !strings.HasPrefix(entry.MountPoint, MountDirPrefix) {
			continue
		}
		logrus.Infof("Detaching stale mount %s", entry.MountPoint)
		if err := UnmountRoot(entry.MountPoint); err != nil {
			logrus.Debugf("Detaching %s: %v", entry.MountPoint, err)
		}
	}
}
