package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luma/respd/protocol"
)

var (
	// One of simple, bulk or null
	encodeType string

	// Write the raw frame instead of an escaped string
	encodeRaw bool
)

func init() {
	flags := EncodeCmd.Flags()

	flags.StringVarP(&encodeType, "type", "t", "bulk", "The value type: simple, bulk or null")
	flags.BoolVar(&encodeRaw, "raw", false, "Write the raw frame instead of an escaped string")
}

var EncodeCmd = &cobra.Command{
	Use:   "encode [text]",
	Short: "Encode a value as a RESP frame",
	Long: `Encode a value as a RESP frame and print it as a Go escaped string.

Usage
	respd encode --type simple OK
	respd encode hello
	respd encode --type null

`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := valueFromArgs(encodeType, args)
		if err != nil {
			return err
		}

		frame := protocol.Encode(v)

		if encodeRaw {
			_, err = cmd.OutOrStdout().Write(frame)
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.Quote(string(frame)))
		return err
	},
}

func valueFromArgs(valueType string, args []string) (protocol.Value, error) {
	if valueType == "null" {
		if len(args) != 0 {
			return nil, fmt.Errorf("null takes no text, got %q", args[0])
		}
		return protocol.Null{}, nil
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("%s needs exactly one text argument", valueType)
	}

	switch valueType {
	case "simple":
		if strings.ContainsAny(args[0], "\r\n") {
			return nil, errors.New("simple strings cannot contain CR or LF, use --type bulk")
		}
		return protocol.SimpleString(args[0]), nil
	case "bulk":
		return protocol.BulkString(args[0]), nil
	default:
		return nil, fmt.Errorf("unknown value type %q, want simple, bulk or null", valueType)
	}
}
