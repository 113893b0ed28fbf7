package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/respd/cmd/gen"
)

var RootCmd = &cobra.Command{
	Use:   "respd",
	Short: "A tiny RESP speaking server",
	Long: `respd decodes RESP simple strings, bulk strings and nulls sent by its
clients and answers every frame with a fixed reply.

It also ships the decoder and encoder as command line tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.AddCommand(StartCmd)
	RootCmd.AddCommand(DecodeCmd)
	RootCmd.AddCommand(EncodeCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
