package guest

import (
	"github.com/sirupsen/logrus"

	"github.com/cadence-os/installkit/internal/command"
)

// grubTarget describes how grub-install is invoked for one architecture in
// EFI mode. Architectures absent from the table cannot boot via GRUB and are
// skipped without error.
type grubTarget struct {
	target string
	efi    bool
}

var grubTargets = map[string]grubTarget{
	"amd64":   {"--target=x86_64-efi", true},
	"arm64":   {"--target=arm64-efi", true},
	"ppc64le": {"--target=powerpc-ieee1275", false},
	"riscv64": {"--target=riscv64-efi", true},
}

// InstallBootloader runs grub-install followed by grub-mkconfig inside the
// guest. In BIOS mode mbrDevice names the whole disk that receives the
// i386-pc boot code; in EFI mode it is empty and the per-arch table decides
// the target.
func InstallBootloader(arch, mbrDevice string) error {
	var args []string

	if mbrDevice != "" {
		args = []string{"--target=i386-pc", mbrDevice}
	} else {
		tgt, ok := grubTargets[arch]
		if !ok {
			logrus.Infof("Architecture %s does not support GRUB, skipping bootloader install", arch)
			return nil
		}
		args = []string{"--bootloader-id=Cadence OS", tgt.target}
		if tgt.efi {
			args = append(args, "--efi-directory=/efi")
		}
	}

	if err := command.Run("grub-install", args...); err != nil {
		return err
	}
	return command.Run("grub-mkconfig", "-o", "/boot/grub/grub.cfg")
}
