// Package guest configures the installed system from inside the chroot.
// Every function here assumes the process root has already been moved into
// the guest via the mount session; paths are guest-absolute.
package guest

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cadence-os/installkit/internal/command"
)

// SetHostname writes /etc/hostname.
func SetHostname(name string) error {
	return os.WriteFile("/etc/hostname", []byte(name), 0644)
}

// SetLocale writes /etc/locale.conf.
func SetLocale(locale string) error {
	return os.WriteFile("/etc/locale.conf", []byte("LANG="+locale), 0644)
}

// SetZoneinfo points /etc/localtime at the zoneinfo database entry,
// replacing any existing link or file.
func SetZoneinfo(zone string) error {
	if _, err := os.Lstat("/etc/localtime"); err == nil {
		if err := os.Remove("/etc/localtime"); err != nil {
			return err
		}
	}
	return os.Symlink("/usr/share/zoneinfo/"+zone, "/etc/localtime")
}

// SetHwclock aligns the hardware clock with the chosen RTC mode. The current
// mode is read from the third line of /etc/adjtime; hwclock is only invoked
// when the mode actually has to change.
func SetHwclock(utc bool) error {
	rtcIsLocal := adjtimeIsLocal()

	logrus.Infof("Hardware clock currently local: %v", rtcIsLocal)
	if utc {
		if !rtcIsLocal {
			return nil
		}
		return command.Run("hwclock", "-wu")
	}
	if rtcIsLocal {
		return nil
	}
	return command.Run("hwclock", "-wl")
}

func adjtimeIsLocal() bool {
	data, err := os.ReadFile("/etc/adjtime")
	if err != nil {
		return false
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) < 3 {
		return false
	}
	return strings.TrimSpace(lines[2]) == "LOCAL"
}

// AddUser creates the primary user, adds it to the standard device groups
// and sets its password by piping the credential to chpasswd.
func AddUser(name, password string) error {
	if err := command.Run("useradd", "-m", "-s", "/bin/bash", name); err != nil {
		return err
	}
	if err := command.Run("usermod", "-aG", "audio,cdrom,video,wheel,plugdev", name); err != nil {
		return err
	}
	credential := strings.NewReader(fmt.Sprintf("%s:%s\n", name, password))
	return command.RunWithStdin(credential, "chpasswd")
}

// UpdateInitramfs regenerates the initial RAM disk for the guest kernel.
func UpdateInitramfs() error {
	return command.Run("/usr/bin/update-initramfs")
}

// DisableHibernate masks the systemd hibernate target by symlinking it to
// the null device. Used when the swap configuration cannot hold a RAM image.
func DisableHibernate() error {
	const target = "/etc/systemd/system/hibernate.target"
	if _, err := os.Lstat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return err
		}
	}
	return os.Symlink("/dev/null", target)
}
