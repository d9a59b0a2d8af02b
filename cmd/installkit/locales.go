package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cadence-os/installkit/internal/parser"
)

var localesCmd = &cobra.Command{
	Use:   "locales",
	Short: "List locales accepted in an install request",
	Run: func(cmd *cobra.Command, args []string) {
		names, err := parser.LoadLocales()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading locales: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

var timezonesCmd = &cobra.Command{
	Use:   "timezones",
	Short: "List timezones accepted in an install request",
	Run: func(cmd *cobra.Command, args []string) {
		zones, err := parser.LoadZoneinfo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timezones: %v\n", err)
			os.Exit(1)
		}
		for _, zone := range zones {
			fmt.Println(zone)
		}
	},
}
