package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cadence-os/installkit/internal/network"
	"github.com/cadence-os/installkit/internal/sysinfo"
)

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "List release variants and download mirrors",
	Run: func(cmd *cobra.Command, args []string) {
		manifestURL, _ := cmd.Flags().GetString("manifest")
		rank, _ := cmd.Flags().GetBool("rank")

		manifest, err := network.FetchManifest(manifestURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching release manifest: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Available variants:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tDATE\tDOWNLOAD\tINSTALLED")
		for _, entry := range network.VariantCandidates(manifest, sysinfo.Arch()) {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				entry.Name, entry.Date,
				humanize.IBytes(entry.Size), humanize.IBytes(entry.InstallSize))
		}
		w.Flush()

		mirrors := manifest.Mirrors
		if rank {
			fmt.Println("\nTiming mirrors, this may take a moment...")
			mirrors = network.RankMirrors(mirrors)
		}

		fmt.Println("\nMirrors:")
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tREGION\tURL")
		for _, mirror := range mirrors {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", mirror.Name, mirror.Region, mirror.URL)
		}
		w.Flush()
	},
}

func init() {
	mirrorsCmd.Flags().String("manifest", "", "release manifest URL")
	mirrorsCmd.Flags().Bool("rank", false, "probe every mirror and sort fastest first")
}
