// Package resourcepack loads the blockstate definitions of a resource pack
// laid out as assets/<namespace>/blockstates/<block>.json.
package resourcepack

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"voxelexport.ai/internal/blockstate"
	"voxelexport.ai/internal/connect"
)

type Options struct {
	// DoubleSided lists blocks whose geometry renders both face sides.
	DoubleSided []string
	Deps        blockstate.Deps
	// FailFast aborts on the first bad definition instead of recording it
	// in Pack.Rejected.
	FailFast bool
	Log      zerolog.Logger
}

type Pack struct {
	Defs     map[string]*blockstate.Definition
	Rejected map[string]error
	Digest   string
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Load reads every blockstate file under fsys.
func Load(fsys fs.FS, opts Options) (*Pack, error) {
	files, err := blockstateFiles(fsys)
	if err != nil {
		return nil, err
	}
	doubleSided := map[string]bool{}
	for _, n := range opts.DoubleSided {
		doubleSided[connect.QualifiedName(n)] = true
	}

	p := &Pack{
		Defs:     map[string]*blockstate.Definition{},
		Rejected: map[string]error{},
	}
	var concat bytes.Buffer
	for _, f := range files {
		raw, err := fs.ReadFile(fsys, f.path)
		if err != nil {
			return nil, err
		}
		concat.Write(raw)
		concat.WriteByte('\n')

		d, err := blockstate.LoadDefinition(f.name, raw, doubleSided[f.name], opts.Deps)
		if err != nil {
			if opts.FailFast {
				return nil, err
			}
			opts.Log.Warn().Err(err).Str("block", f.name).Msg("blockstate rejected")
			p.Rejected[f.name] = err
			continue
		}
		p.Defs[f.name] = d
	}
	p.Digest = sha256Hex(concat.Bytes())
	opts.Log.Info().Int("definitions", len(p.Defs)).Int("rejected", len(p.Rejected)).
		Str("digest", p.Digest[:12]).Msg("resource pack loaded")
	return p, nil
}

type blockstateFile struct {
	name string
	path string
}

func blockstateFiles(fsys fs.FS) ([]blockstateFile, error) {
	namespaces, err := fs.ReadDir(fsys, "assets")
	if err != nil {
		return nil, fmt.Errorf("resource pack: %w", err)
	}
	var out []blockstateFile
	for _, ns := range namespaces {
		if !ns.IsDir() {
			continue
		}
		dir := path.Join("assets", ns.Name(), "blockstates")
		err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
				return nil
			}
			rel := strings.TrimSuffix(strings.TrimPrefix(p, dir+"/"), ".json")
			out = append(out, blockstateFile{name: ns.Name() + ":" + rel, path: p})
			return nil
		})
		if err != nil {
			if _, statErr := fs.Stat(fsys, dir); statErr != nil {
				continue
			}
			return nil, err
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

// Lookup finds the definition for a block name; bare names get the
// minecraft namespace.
func (p *Pack) Lookup(name string) (*blockstate.Definition, bool) {
	d, ok := p.Defs[connect.QualifiedName(name)]
	return d, ok
}

// Names lists loaded block names in sorted order.
func (p *Pack) Names() []string {
	out := make([]string, 0, len(p.Defs))
	for n := range p.Defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
