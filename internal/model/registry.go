package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var ErrUnknownModel = errors.New("unknown model")

// maxParentDepth bounds parent chains so a cycle fails instead of looping.
const maxParentDepth = 32

type internKey struct {
	name        string
	doubleSided bool
}

// Registry interns model names to IDs and caches the resolved geometry.
// Models are read lazily from a resource pack laid out as
// assets/<namespace>/models/<path>.json. It is safe for concurrent use.
type Registry struct {
	fsys fs.FS
	log  zerolog.Logger

	mu     sync.Mutex
	ids    map[internKey]ID
	models []*Model // index = ID-1
	files  map[string]*modelFile
}

// NewRegistry reads models from fsys, which may be nil for a registry fed
// only through Register.
func NewRegistry(fsys fs.FS, log zerolog.Logger) *Registry {
	return &Registry{
		fsys:  fsys,
		log:   log,
		ids:   map[internKey]ID{},
		files: map[string]*modelFile{},
	}
}

// Register stores m under name and returns its ID, replacing nothing: a
// name already interned keeps its original ID and geometry.
func (r *Registry) Register(name string, doubleSided bool, m *Model) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := internKey{name: canonicalName(name), doubleSided: doubleSided}
	if id, ok := r.ids[k]; ok {
		return id
	}
	m.DoubleSided = doubleSided
	return r.internLocked(k, m)
}

func (r *Registry) internLocked(k internKey, m *Model) ID {
	r.models = append(r.models, m)
	id := ID(len(r.models))
	r.ids[k] = id
	return id
}

// IDForName resolves a model name, loading it on first use.
func (r *Registry) IDForName(name string, doubleSided bool) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := internKey{name: canonicalName(name), doubleSided: doubleSided}
	if id, ok := r.ids[k]; ok {
		return id, nil
	}
	m, err := r.resolveLocked(k.name)
	if err != nil {
		return 0, err
	}
	m.DoubleSided = doubleSided
	id := r.internLocked(k, m)
	r.log.Debug().Str("model", k.name).Bool("double_sided", doubleSided).Int32("id", int32(id)).
		Int("elements", len(m.Elements)).Msg("model loaded")
	return id, nil
}

// Model returns the shared geometry for id. Callers must not mutate it.
func (r *Registry) Model(id ID) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id <= 0 || int(id) > len(r.models) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownModel, id)
	}
	return r.models[id-1], nil
}

// Copy returns an independent copy of the geometry for id.
func (r *Registry) Copy(id ID) (*Model, error) {
	m, err := r.Model(id)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// Len is the number of interned models.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.models)
}

// canonicalName adds the default namespace: "block/stone" becomes
// "minecraft:block/stone".
func canonicalName(name string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, ":") {
		return name
	}
	return "minecraft:" + name
}

func modelPath(name string) string {
	ns, p, _ := strings.Cut(name, ":")
	return path.Join("assets", ns, "models", p+".json")
}

type modelFile struct {
	Parent           string            `json:"parent"`
	AmbientOcclusion *bool             `json:"ambientocclusion"`
	Textures         map[string]string `json:"textures"`
	Elements         []elementFile     `json:"elements"`
}

type elementFile struct {
	From     [3]float64          `json:"from"`
	To       [3]float64          `json:"to"`
	Rotation *rotationFile       `json:"rotation"`
	Shade    *bool               `json:"shade"`
	Faces    map[string]faceFile `json:"faces"`
}

type rotationFile struct {
	Origin  [3]float64 `json:"origin"`
	Axis    string     `json:"axis"`
	Angle   float64    `json:"angle"`
	Rescale bool       `json:"rescale"`
}

type faceFile struct {
	UV        *[4]float64 `json:"uv"`
	Texture   string      `json:"texture"`
	CullFace  string      `json:"cullface"`
	Rotation  int         `json:"rotation"`
	TintIndex *int        `json:"tintindex"`
}

func (r *Registry) readLocked(name string) (*modelFile, error) {
	if f, ok := r.files[name]; ok {
		return f, nil
	}
	if r.fsys == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	raw, err := fs.ReadFile(r.fsys, modelPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
		}
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	var f modelFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	r.files[name] = &f
	return &f, nil
}

// resolveLocked walks the parent chain. Textures merge child-over-parent;
// elements and ambient occlusion come from the nearest file declaring them.
func (r *Registry) resolveLocked(name string) (*Model, error) {
	m := New(name)
	var (
		elements []elementFile
		haveEl   bool
		haveAO   bool
	)
	cur := name
	for depth := 0; cur != ""; depth++ {
		if depth >= maxParentDepth {
			return nil, fmt.Errorf("model %s: parent chain too deep", name)
		}
		if strings.HasPrefix(strings.TrimPrefix(cur, "minecraft:"), "builtin/") {
			break
		}
		f, err := r.readLocked(cur)
		if err != nil {
			if cur != name {
				return nil, fmt.Errorf("model %s: parent: %w", name, err)
			}
			return nil, err
		}
		for k, v := range f.Textures {
			if _, ok := m.Textures[k]; !ok {
				m.Textures[k] = v
			}
		}
		if !haveEl && f.Elements != nil {
			elements, haveEl = f.Elements, true
		}
		if !haveAO && f.AmbientOcclusion != nil {
			m.AmbientOcclusion, haveAO = *f.AmbientOcclusion, true
		}
		cur = ""
		if f.Parent != "" {
			cur = canonicalName(f.Parent)
		}
	}

	for i, ef := range elements {
		e, err := buildElement(ef, m.Textures)
		if err != nil {
			return nil, fmt.Errorf("model %s: element %d: %w", name, i, err)
		}
		m.Elements = append(m.Elements, e)
	}
	return m, nil
}

func buildElement(ef elementFile, textures map[string]string) (Element, error) {
	e := Element{From: ef.From, To: ef.To, Shade: true, Faces: map[Direction]Face{}}
	if ef.Shade != nil {
		e.Shade = *ef.Shade
	}
	if ef.Rotation != nil {
		axis := strings.ToLower(ef.Rotation.Axis)
		if axis != "x" && axis != "y" && axis != "z" {
			return e, fmt.Errorf("bad rotation axis %q", ef.Rotation.Axis)
		}
		e.Rotation = &ElementRotation{
			Origin:  ef.Rotation.Origin,
			Axis:    axis[0],
			Angle:   ef.Rotation.Angle,
			Rescale: ef.Rotation.Rescale,
		}
	}
	for key, ff := range ef.Faces {
		d, ok := ParseDirection(key)
		if !ok {
			return e, fmt.Errorf("bad face %q", key)
		}
		f := Face{
			Texture:   resolveTexture(ff.Texture, textures),
			Rotation:  ff.Rotation,
			TintIndex: -1,
		}
		if ff.UV != nil {
			f.UV = *ff.UV
		} else {
			f.UV = DefaultUV(d, e.From, e.To)
		}
		if ff.TintIndex != nil {
			f.TintIndex = *ff.TintIndex
		}
		if ff.CullFace != "" {
			c, ok := ParseDirection(ff.CullFace)
			if !ok {
				return e, fmt.Errorf("bad cullface %q", ff.CullFace)
			}
			f.CullFace = &c
		}
		e.Faces[d] = f
	}
	return e, nil
}

// resolveTexture follows "#name" references. An unresolved reference is
// returned as-is so the exporter can report a missing texture by name.
func resolveTexture(ref string, textures map[string]string) string {
	seen := map[string]bool{}
	for strings.HasPrefix(ref, "#") {
		key := ref[1:]
		if seen[key] {
			return ref
		}
		seen[key] = true
		next, ok := textures[key]
		if !ok {
			return ref
		}
		ref = next
	}
	return ref
}
