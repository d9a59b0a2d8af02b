package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cadence-os/installkit/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "installkit",
	Short: "Unattended operating system installation engine",
	Long: `installkit formats a target partition, populates the system root from a
release tarball, configures the installed system from inside a chroot and
installs the bootloader, cleaning up every mount and the chroot context
whether the run succeeds, fails or is cancelled.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the installkit version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(partitionsCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mirrorsCmd)
	rootCmd.AddCommand(localesCmd)
	rootCmd.AddCommand(timezonesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
