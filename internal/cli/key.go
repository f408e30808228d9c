package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// KeyResult is the output of the key command.
type KeyResult struct {
	Key    string `json:"key"`
	Hash   string `json:"hash"`
	Cached bool   `json:"cached"`
}

// NewKeyCommand creates the key command.
func NewKeyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &specOptions{}
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the canonical cache key of an order specification",
		Long: `Print the canonical cache key of an order specification.

Specifications that differ only in parameter names or in how constants
were captured produce the same key.`,
		Example:      `  speccache key --where 'o => o.Status == $s' --var s=Paid --order-by 'o => o.CreatedAt' --desc --take 10`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKey(rootOpts, opts, cmd)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func runKey(rootOpts *RootOptions, opts *specOptions, cmd *cobra.Command) error {
	s, err := opts.build()
	if err != nil {
		return err
	}
	key, err := s.Key()
	if err != nil {
		return err
	}
	h, err := s.Hash()
	if err != nil {
		return err
	}
	res := KeyResult{Key: key, Hash: strconv.FormatUint(h, 16), Cached: s.ShouldCache()}

	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\nhash: %s\n", res.Key, res.Hash)
	return err
}
