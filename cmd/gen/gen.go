package gen

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate documentation for respd",
	Long: `Generate documentation for respd.

Usage
	respd gen man --dir man/
`,
}

func init() {
	RootCmd.AddCommand(ManPagesCmd)
}
