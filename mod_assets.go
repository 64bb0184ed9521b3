package gekkofx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type AssetId string

var ErrPresetNotFound = errors.New("emitter preset not found")

// EmitterLibrary holds emitter presets by asset id and by name. It is safe for
// concurrent use so a watcher goroutine can reload entries while systems read.
type EmitterLibrary struct {
	mu      sync.RWMutex
	presets map[AssetId]EmitterPreset
	names   map[string]AssetId
	paths   map[string]AssetId
}

func NewEmitterLibrary() *EmitterLibrary {
	return &EmitterLibrary{
		presets: make(map[AssetId]EmitterPreset),
		names:   make(map[string]AssetId),
		paths:   make(map[string]AssetId),
	}
}

// Add stores p, assigning a fresh id when it has none. A preset with a known
// name replaces the previous entry and keeps its id.
func (lib *EmitterLibrary) Add(p EmitterPreset) AssetId {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	return lib.add(p)
}

func (lib *EmitterLibrary) add(p EmitterPreset) AssetId {
	if p.ID == "" {
		if id, ok := lib.names[p.Name]; ok && p.Name != "" {
			p.ID = id
		} else {
			p.ID = makeAssetId()
		}
	}
	if old, ok := lib.presets[p.ID]; ok && old.Name != p.Name {
		delete(lib.names, old.Name)
	}
	lib.presets[p.ID] = p
	if p.Name != "" {
		lib.names[p.Name] = p.ID
	}
	return p.ID
}

func (lib *EmitterLibrary) Get(id AssetId) (EmitterPreset, bool) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	p, ok := lib.presets[id]
	return p, ok
}

func (lib *EmitterLibrary) ByName(name string) (EmitterPreset, bool) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	id, ok := lib.names[name]
	if !ok {
		return EmitterPreset{}, false
	}
	return lib.presets[id], true
}

// Names lists preset names in sorted order.
func (lib *EmitterLibrary) Names() []string {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	names := make([]string, 0, len(lib.names))
	for n := range lib.names {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (lib *EmitterLibrary) Len() int {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return len(lib.presets)
}

// LoadFile loads or reloads the preset stored at path. Reloading a path keeps
// the asset id it was first given.
func (lib *EmitterLibrary) LoadFile(path string) (AssetId, error) {
	p, err := LoadPreset(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()
	if id, ok := lib.paths[abs]; ok && p.ID == "" {
		p.ID = id
	}
	id := lib.add(p)
	lib.paths[abs] = id
	return id, nil
}

// LoadDir loads every preset file in dir. Files with other extensions are
// skipped; files that fail to load are reported together.
func (lib *EmitterLibrary) LoadDir(dir string) ([]AssetId, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read preset dir: %w", err)
	}

	var ids []AssetId
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := FormatFromPath(path); err != nil {
			continue
		}
		id, err := lib.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// Instantiate builds an emitter component from a stored preset.
func (lib *EmitterLibrary) Instantiate(id AssetId) (*ParticleEmitterComponent, error) {
	p, ok := lib.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	c := NewParticleEmitterComponent(p.Config(), p.Seed)
	c.Preset = id
	return c, nil
}

func (lib *EmitterLibrary) InstantiateByName(name string) (*ParticleEmitterComponent, error) {
	lib.mu.RLock()
	id, ok := lib.names[name]
	lib.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return lib.Instantiate(id)
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
