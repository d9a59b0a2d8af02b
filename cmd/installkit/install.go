package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cadence-os/installkit/internal/config"
	"github.com/cadence-os/installkit/internal/journal"
	"github.com/cadence-os/installkit/internal/logging"
	"github.com/cadence-os/installkit/internal/pipeline"
	"github.com/cadence-os/installkit/internal/swap"
	"github.com/cadence-os/installkit/internal/sysinfo"
)

const savedRequestPath = "/root/installkit-request.yaml"

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run an unattended installation from a request file",
	Long: `Reads a fully populated install request (target partition, release
variant, mirror, credentials, locale, timezone and swap configuration) and
runs the install pipeline to completion. SIGINT aborts the run: all mounts
are detached, the chroot is escaped and the process exits.`,
	Run: func(cmd *cobra.Command, args []string) {
		requestFile, _ := cmd.Flags().GetString("request")
		journalPath, _ := cmd.Flags().GetString("journal")
		logDir, _ := cmd.Flags().GetString("log-dir")
		debug, _ := cmd.Flags().GetBool("debug")

		req, err := config.LoadRequest(requestFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading install request: %v\n", err)
			os.Exit(1)
		}
		if err := req.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid install request: %v\n", err)
			os.Exit(1)
		}
		if err := resolveSwapSize(req); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid swap configuration: %v\n", err)
			os.Exit(1)
		}

		logPath, err := logging.Setup(logDir, debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
			os.Exit(1)
		}

		jdb, err := journal.Open(journalPath)
		if err != nil {
			logrus.Warnf("Install journal unavailable: %v", err)
			jdb = nil
		} else {
			defer jdb.Close()
		}

		inst := pipeline.New(req, logPath, jdb)

		// The watcher inside the pipeline performs the cleanup; this
		// handler only forwards the signal.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			inst.Cancel()
		}()

		inst.Run()

		finished := false
		for event := range inst.Progress() {
			if event.Finished {
				finished = true
				fmt.Println("\nInstallation complete. You may now reboot into the installed system.")
				continue
			}
			fmt.Printf("[%3d%%] %s\n", event.Percent, event.Message)
		}

		if !finished {
			err := inst.Wait()
			fmt.Fprintf(os.Stderr, "\nInstallation failed: %v\n\nLog file saved to %s\n", err, inst.LogPath())
			os.Exit(1)
		}

		if err := config.SaveCompleted(req, savedRequestPath); err != nil {
			logrus.Warnf("Saving install configuration: %v", err)
		}
	},
}

// resolveSwapSize fills an unspecified swapfile size with the machine
// recommendation and rejects sizes too small to be workable or, when
// hibernation is requested, too small to hold a RAM image.
func resolveSwapSize(req *config.InstallRequest) error {
	if !req.Swap.Enabled {
		return nil
	}

	memBytes := sysinfo.TotalMemoryBytes()
	if req.Swap.SizeBytes == 0 {
		req.Swap.SizeBytes = swap.RecommendedBytes(sysinfo.TotalMemoryGiB())
	}

	if swap.DefaultSize(req.Swap.SizeBytes, sysinfo.TotalMemoryGiB()) {
		logrus.Infof("Using recommended swapfile size %s", humanize.IBytes(req.Swap.SizeBytes))
	} else {
		logrus.Infof("Using custom swapfile size %s", humanize.IBytes(req.Swap.SizeBytes))
	}

	hibernatable, err := swap.HibernationFeasible(req.Swap.SizeBytes, memBytes)
	if err != nil {
		return err
	}
	if req.Swap.Hibernation && !hibernatable {
		return fmt.Errorf("a %s swapfile cannot hold a hibernation image on this machine",
			humanize.IBytes(req.Swap.SizeBytes))
	}
	return nil
}

func init() {
	installCmd.Flags().StringP("request", "r", "", "install request file (default is /etc/installkit/install.yaml)")
	installCmd.Flags().String("journal", "", "install journal database path")
	installCmd.Flags().String("log-dir", "", "directory for persisted install logs")
	installCmd.Flags().Bool("debug", false, "enable debug logging")
}
