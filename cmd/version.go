package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mathmate version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("mathmate %s\n", version)
	},
}
