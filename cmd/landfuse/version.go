package main

import (
	"fmt"

	"github.com/spf13/cobra"

	landfuse "github.com/lkgeo/landfuse/pkg/v1"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the landfuse version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("landfuse version %s\n", landfuse.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
