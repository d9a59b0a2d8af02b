package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cadence-os/installkit/internal/disks"
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "List candidate install target partitions",
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")
		partitions := disks.List()

		if jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(partitions); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding partitions: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if len(partitions) == 0 {
			fmt.Println("No partitions found. Did you partition your target disk?")
			return
		}
		for _, p := range partitions {
			fsType := p.FSType
			if fsType == "" {
				fsType = "unformatted"
			}
			fmt.Printf("%-16s %-10s %10s  (on %s)\n",
				p.Path, fsType, humanize.IBytes(p.Size), p.ParentPath)
		}
	},
}

func init() {
	partitionsCmd.Flags().Bool("json", false, "Output as JSON")
}
