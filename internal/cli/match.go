package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"voxelexport.ai/internal/blockstate"
	"voxelexport.ai/internal/connect"
	"voxelexport.ai/internal/logging"
	"voxelexport.ai/internal/nbt"
	"voxelexport.ai/internal/world"
)

type MatchOptions struct {
	*RootOptions
	Pack  string
	World string
	Pos   []int
}

type MatchEntry struct {
	Model   string `json:"model"`
	ModelID int32  `json:"model_id"`
	RotX    int    `json:"x,omitempty"`
	RotY    int    `json:"y,omitempty"`
	UVLock  bool   `json:"uvlock,omitempty"`
	Weight  int    `json:"weight"`
}

type MatchResult struct {
	Block   string       `json:"block"`
	Props   nbt.Compound `json:"props"`
	Entries []MatchEntry `json:"entries"`
}

func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <block> [properties-json]",
		Short: "Show which geometry a block state selects",
		Long: `Evaluate a single block state against its blockstate definition and
print every matching entry. Properties are a JSON object such as
'{"facing":"east","half":"top"}'. Connection conditions are evaluated
against --world at --pos; without a world every neighbour is air.

Example:
  miex match --pack ./pack oak_stairs '{"facing":"east","half":"top"}'
  miex match --pack ./pack --world w.snap.zst --pos 10,64,-3 oak_fence`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Pack, "pack", "", "resource pack directory")
	cmd.Flags().StringVar(&opts.World, "world", "", "world snapshot for connection conditions")
	cmd.Flags().IntSliceVar(&opts.Pos, "pos", []int{0, 0, 0}, "block position x,y,z")

	return cmd
}

func runMatch(cmd *cobra.Command, opts *MatchOptions, args []string) error {
	cfg, _, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("pack") {
		cfg.ResourcePack = opts.Pack
	}
	if cmd.Flags().Changed("world") {
		cfg.World = opts.World
	}
	if len(opts.Pos) != 3 {
		return NewExitError(ExitCommandError, "--pos needs three coordinates")
	}

	var props nbt.Compound
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &props); err != nil {
			return WrapExitError(ExitCommandError, "invalid properties", err)
		}
	}

	tester := connect.Tester{}
	if cfg.World != "" {
		store, err := world.Load(cfg.World)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load world", err)
		}
		tester.World = store
	}

	pack, err := loadPack(cfg.ResourcePack, cfg, tester, logging.Get("resourcepack"))
	if err != nil {
		return err
	}
	name := connect.QualifiedName(args[0])
	def, ok := pack.Lookup(name)
	if !ok {
		if rerr, rejected := pack.Rejected[name]; rejected {
			return WrapExitError(ExitFailure, "blockstate rejected", rerr)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("no blockstate for %s", name))
	}

	res := MatchResult{Block: name, Props: props, Entries: []MatchEntry{}}
	for _, e := range def.Match(props, opts.Pos[0], opts.Pos[1], opts.Pos[2]) {
		res.Entries = append(res.Entries, matchEntry(e))
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, res)
	}
	if len(res.Entries) == 0 {
		fmt.Fprintf(out, "%s: no part matched\n", name)
		return nil
	}
	fmt.Fprintf(out, "%s: %d entries\n", name, len(res.Entries))
	for _, e := range res.Entries {
		fmt.Fprintf(out, "  %s x=%d y=%d uvlock=%t weight=%d\n", e.Model, e.RotX, e.RotY, e.UVLock, e.Weight)
	}
	return nil
}

func matchEntry(e blockstate.Entry) MatchEntry {
	me := MatchEntry{
		ModelID: int32(e.ModelID),
		RotX:    e.RotX,
		RotY:    e.RotY,
		UVLock:  e.UVLock,
		Weight:  e.Weight,
	}
	if e.Model != nil {
		me.Model = e.Model.Name
	}
	return me
}
