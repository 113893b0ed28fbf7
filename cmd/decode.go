package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luma/respd/api"
	"github.com/luma/respd/protocol"
)

var (
	// Print the JSON decode report instead of one line per value
	decodeJSON bool

	// Read raw frames from stdin instead of an escaped argument
	decodeStdin bool
)

func init() {
	flags := DecodeCmd.Flags()

	flags.BoolVar(&decodeJSON, "json", false, "Print a JSON report like POST /decode does")
	flags.BoolVar(&decodeStdin, "stdin", false, "Read raw frames from stdin")
}

var DecodeCmd = &cobra.Command{
	Use:   "decode [frames]",
	Short: "Decode RESP frames",
	Long: `Decode RESP frames and print the values they hold.

Frames are given as a single Go escaped string, or read raw from stdin.

Usage
	respd decode '+OK\r\n$2\r\nhi\r\n'
	printf '$-1\r\n' | respd decode --stdin

`,
	Args: func(cmd *cobra.Command, args []string) error {
		if decodeStdin {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			buf []byte
			err error
		)

		if decodeStdin {
			buf, err = io.ReadAll(cmd.InOrStdin())
		} else {
			buf, err = unescape(args[0])
		}

		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		if decodeJSON {
			report, err := api.DecodeReport(buf)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(out, string(report))
			return err
		}

		values, cursor, decodeErr := protocol.DecodeAll(buf)
		for _, v := range values {
			fmt.Fprintf(out, "%s\t%s\n", v.Type(), v)
		}

		if decodeErr != nil {
			return fmt.Errorf("decoding stopped at byte %d (%s): %w",
				cursor, protocol.ErrorKind(decodeErr), decodeErr)
		}

		return nil
	},
}

// unescape turns a Go escaped string such as `+OK\r\n` into raw bytes.
func unescape(s string) ([]byte, error) {
	unquoted, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return nil, errors.New("frames must be a valid Go escaped string, e.g. '+OK\\r\\n'")
	}

	return []byte(unquoted), nil
}
