package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"voxelexport.ai/internal/connect"
	"voxelexport.ai/internal/logging"
)

type ValidateResult struct {
	Digest      string            `json:"digest"`
	Definitions int               `json:"definitions"`
	Rejected    map[string]string `json:"rejected"`
}

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <pack-dir>",
		Short: "Check every blockstate of a resource pack",
		Long: `Load every blockstate of a resource pack, resolving its models, and
report the definitions that fail. Exits non-zero when any is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, dir string) error {
	cfg, _, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	// Connection conditions only need a tester to be accepted here.
	pack, err := loadPack(dir, cfg, connect.Tester{}, logging.Get("resourcepack"))
	if err != nil {
		return err
	}

	res := ValidateResult{Digest: pack.Digest, Definitions: len(pack.Defs), Rejected: map[string]string{}}
	names := make([]string, 0, len(pack.Rejected))
	for n, e := range pack.Rejected {
		res.Rejected[n] = e.Error()
		names = append(names, n)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		for _, n := range names {
			fmt.Fprintf(out, "✗ %s: %s\n", n, res.Rejected[n])
		}
		if len(names) == 0 {
			fmt.Fprintf(out, "✓ %d blockstates valid\n", res.Definitions)
		}
	}
	if len(names) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d blockstates rejected", len(names)))
	}
	return nil
}
