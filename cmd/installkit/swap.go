package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cadence-os/installkit/internal/swap"
	"github.com/cadence-os/installkit/internal/sysinfo"
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Show the recommended swapfile size for this machine",
	Run: func(cmd *cobra.Command, args []string) {
		memBytes := sysinfo.TotalMemoryBytes()
		if memBytes == 0 {
			fmt.Fprintln(os.Stderr, "Error: could not determine installed memory size")
			os.Exit(1)
		}
		recommended := swap.RecommendedBytes(sysinfo.TotalMemoryGiB())

		fmt.Printf("Installed memory:   %s\n", humanize.IBytes(memBytes))
		fmt.Printf("Recommended swap:   %s\n", humanize.IBytes(recommended))

		if ok, _ := swap.HibernationFeasible(recommended, memBytes); ok {
			fmt.Println("Hibernation:        supported")
		} else {
			fmt.Println("Hibernation:        not supported at this size")
		}
	},
}
