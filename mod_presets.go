package gekkofx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/gekkofx/sim/emission"
	"github.com/gekko3d/gekkofx/sim/emitter"
	"github.com/pelletier/go-toml/v2"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPreset = errors.New("invalid emitter preset")
	ErrUnknownFormat = errors.New("unknown preset format")
)

type PresetFormat int

const (
	FormatJSON PresetFormat = iota
	FormatYAML
	FormatTOML
)

func (f PresetFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	}
	return "unknown"
}

// FormatFromPath picks the preset format from a file extension.
func FormatFromPath(path string) (PresetFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// EmitterPreset is the file form of an emitter configuration.
type EmitterPreset struct {
	ID   AssetId `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Name string  `json:"name" yaml:"name" toml:"name"`
	Seed uint64  `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty"`

	MaxParticles   int     `json:"max_particles" yaml:"max_particles" toml:"max_particles"`
	Loop           bool    `json:"loop" yaml:"loop" toml:"loop"`
	MaxTime        float32 `json:"max_time,omitempty" yaml:"max_time,omitempty" toml:"max_time,omitempty"`
	TimeMultiplier float32 `json:"time_multiplier,omitempty" yaml:"time_multiplier,omitempty" toml:"time_multiplier,omitempty"`
	StartDelay     float32 `json:"start_delay,omitempty" yaml:"start_delay,omitempty" toml:"start_delay,omitempty"`
	LocalSpace     bool    `json:"local_space,omitempty" yaml:"local_space,omitempty" toml:"local_space,omitempty"`
	InheritSpeed   bool    `json:"inherit_speed,omitempty" yaml:"inherit_speed,omitempty" toml:"inherit_speed,omitempty"`

	Lifetime emission.SingleValue    `json:"lifetime" yaml:"lifetime" toml:"lifetime"`
	Interval emission.Interval       `json:"interval" yaml:"interval" toml:"interval"`
	Spawn    emission.Spawn          `json:"spawn" yaml:"spawn" toml:"spawn"`
	Shape    emission.ShapeConfig    `json:"shape" yaml:"shape" toml:"shape"`
	Velocity emission.Vector         `json:"velocity" yaml:"velocity" toml:"velocity"`
	Forces   emission.ExternalForces `json:"forces" yaml:"forces" toml:"forces"`
	Boundary emission.BoundaryConfig `json:"boundary" yaml:"boundary" toml:"boundary"`
	Collider emission.Collider       `json:"collider" yaml:"collider" toml:"collider"`
	Light    emission.Light          `json:"light" yaml:"light" toml:"light"`
}

func DecodePreset(r io.Reader, format PresetFormat) (EmitterPreset, error) {
	var p EmitterPreset
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&p)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&p)
	case FormatTOML:
		err = toml.NewDecoder(r).Decode(&p)
	default:
		return p, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if err != nil {
		return p, fmt.Errorf("decode %s preset: %w", format, err)
	}
	p.applyDefaults()
	return p, p.Validate()
}

func EncodePreset(w io.Writer, p EmitterPreset, format PresetFormat) error {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(p, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(p)
	case FormatTOML:
		data, err = toml.Marshal(p)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encode %s preset: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

func LoadPreset(path string) (EmitterPreset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return EmitterPreset{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return EmitterPreset{}, fmt.Errorf("read preset: %w", err)
	}
	p, err := DecodePreset(bytes.NewReader(data), format)
	if err != nil {
		return p, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

func SavePreset(path string, p EmitterPreset) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := EncodePreset(&buf, p, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// applyDefaults fills zero fields that would otherwise make the emitter inert.
func (p *EmitterPreset) applyDefaults() {
	if p.MaxParticles == 0 {
		p.MaxParticles = 100
	}
	if p.TimeMultiplier == 0 {
		p.TimeMultiplier = 1
	}
	if p.Spawn.Kind != emission.SpawnFlow && p.Spawn.ParticlesPerEvent == 0 {
		p.Spawn.ParticlesPerEvent = 1
	}
}

func (p EmitterPreset) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidPreset, fmt.Sprintf(format, args...)))
	}

	if p.MaxParticles < 0 {
		invalid("max_particles %d is negative", p.MaxParticles)
	}
	if p.TimeMultiplier < 0 {
		invalid("time_multiplier %g is negative", p.TimeMultiplier)
	}
	if p.StartDelay < 0 {
		invalid("start_delay %g is negative", p.StartDelay)
	}
	if !p.Loop && p.MaxTime <= 0 {
		invalid("max_time must be positive when loop is off")
	}
	if p.Lifetime.Margin < 0 {
		invalid("lifetime margin %g is negative", p.Lifetime.Margin)
	}
	if p.Spawn.ParticlesPerEvent < 0 {
		invalid("spawn particles_per_event %d is negative", p.Spawn.ParticlesPerEvent)
	}
	if p.Spawn.Frequency < 0 {
		invalid("spawn frequency %g is negative", p.Spawn.Frequency)
	}
	if p.Interval.Duration[0] < 0 || p.Interval.Duration[1] < 0 {
		invalid("interval durations %v must not be negative", p.Interval.Duration)
	}

	s := p.Shape
	if s.Radius < 0 || s.InnerRadius < 0 {
		invalid("shape radii must not be negative")
	}
	if (s.Kind == emission.ShapeRing || s.Kind == emission.ShapeHollowSphere) && s.InnerRadius > s.Radius {
		invalid("shape inner_radius %g exceeds radius %g", s.InnerRadius, s.Radius)
	}
	if s.Kind == emission.ShapeBox && !lessOrEqual(s.Min, s.Max) {
		invalid("shape box min %v exceeds max %v", s.Min, s.Max)
	}

	b := p.Boundary
	if b.Restitution < 0 || b.Restitution > 1 {
		invalid("boundary restitution %g is outside [0, 1]", b.Restitution)
	}
	if b.Kind == emission.BoundarySphere && b.Radius <= 0 {
		invalid("boundary sphere radius must be positive")
	}
	if b.Kind == emission.BoundaryPlane && b.Normal.LenSqr() == 0 {
		invalid("boundary plane normal is zero")
	}
	if b.Kind == emission.BoundaryBox && !lessOrEqual(b.Min, b.Max) {
		invalid("boundary box min %v exceeds max %v", b.Min, b.Max)
	}
	return errors.Join(errs...)
}

func lessOrEqual(a, b [3]float32) bool {
	return a[0] <= b[0] && a[1] <= b[1] && a[2] <= b[2]
}

// Config builds the emitter configuration. Each call returns fresh running state.
func (p EmitterPreset) Config() emitter.Config {
	return emitter.Config{
		MaxParticles:   p.MaxParticles,
		Loop:           p.Loop,
		MaxTime:        p.MaxTime,
		TimeMultiplier: p.TimeMultiplier,
		StartDelay:     p.StartDelay,
		LocalSpace:     p.LocalSpace,
		InheritSpeed:   p.InheritSpeed,
		Lifetime:       p.Lifetime,
		Interval:       emission.Interval{Kind: p.Interval.Kind, Duration: p.Interval.Duration},
		Spawn: emission.Spawn{
			Kind:              p.Spawn.Kind,
			ParticlesPerEvent: p.Spawn.ParticlesPerEvent,
			Frequency:         p.Spawn.Frequency,
		},
		Shape:    p.Shape.Shape(),
		Velocity: p.Velocity,
		Forces:   p.Forces,
		Boundary: p.Boundary.Boundary(),
		Collider: p.Collider,
		Light:    p.Light,
	}
}

func PresetFromConfig(name string, cfg emitter.Config) EmitterPreset {
	return EmitterPreset{
		Name:           name,
		MaxParticles:   cfg.MaxParticles,
		Loop:           cfg.Loop,
		MaxTime:        cfg.MaxTime,
		TimeMultiplier: cfg.TimeMultiplier,
		StartDelay:     cfg.StartDelay,
		LocalSpace:     cfg.LocalSpace,
		InheritSpeed:   cfg.InheritSpeed,
		Lifetime:       cfg.Lifetime,
		Interval:       emission.Interval{Kind: cfg.Interval.Kind, Duration: cfg.Interval.Duration},
		Spawn: emission.Spawn{
			Kind:              cfg.Spawn.Kind,
			ParticlesPerEvent: cfg.Spawn.ParticlesPerEvent,
			Frequency:         cfg.Spawn.Frequency,
		},
		Shape:    emission.ShapeConfigOf(cfg.Shape),
		Velocity: cfg.Velocity,
		Forces:   cfg.Forces,
		Boundary: emission.BoundaryConfigOf(cfg.Boundary),
		Collider: cfg.Collider,
		Light:    cfg.Light,
	}
}

// PresetModule installs an EmitterLibrary resource loaded from Dir. With Watch
// set, edited preset files are reloaded and every emitter built from them is
// reconfigured in PreUpdate.
type PresetModule struct {
	Dir     string
	Watch   bool
	Library *EmitterLibrary
}

func (m PresetModule) Install(app *App, cmd *Commands) {
	log := app.Logger()
	lib := m.Library
	if lib == nil {
		lib = NewEmitterLibrary()
	}
	cmd.AddResources(lib)

	if m.Dir == "" {
		return
	}
	ids, err := lib.LoadDir(m.Dir)
	if err != nil {
		log.Warnf("presets: %v", err)
	}
	log.Infof("presets: loaded %d from %s", len(ids), m.Dir)

	if !m.Watch {
		return
	}
	watcher, err := NewPresetWatcher(lib, m.Dir, log)
	if err != nil {
		log.Errorf("presets: %v", err)
		return
	}
	cmd.AddResources(watcher)
	app.UseSystem(
		System(presetReloadSystem).
			InStage(PreUpdate),
	)
}

func presetReloadSystem(watcher *PresetWatcher, lib *EmitterLibrary, cmd *Commands, log Logger) {
	for {
		select {
		case id := <-watcher.Reloaded():
			reconfigureFromPreset(cmd, lib, id, log)
		default:
			return
		}
	}
}

func reconfigureFromPreset(cmd *Commands, lib *EmitterLibrary, id AssetId, log Logger) int {
	p, ok := lib.Get(id)
	if !ok {
		return 0
	}
	n := 0
	MakeQuery1[ParticleEmitterComponent](cmd).Map(func(eid EntityId, em *ParticleEmitterComponent) bool {
		if em.Preset == id && em.Emitter != nil {
			em.Emitter.Reconfigure(p.Config())
			n++
		}
		return true
	})
	log.Infof("presets: reloaded %q, %d emitters restarted", p.Name, n)
	return n
}
