package emission

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/gekkofx/sim/rng"
)

// Light sets the lighting attributes handed to the renderer. Unique gives every
// particle the configured base values; PerParticle draws them per spawn.
type Light struct {
	Kind      LightKind   `json:"kind" yaml:"kind" toml:"kind"`
	Color     Vector      `json:"color" yaml:"color" toml:"color"`
	Intensity SingleValue `json:"intensity" yaml:"intensity" toml:"intensity"`
	Specular  SingleValue `json:"specular" yaml:"specular" toml:"specular"`
}

func (l Light) Apply(p *Particle, r rng.Source) {
	switch l.Kind {
	case LightUnique:
		p.LightColor = l.Color.Value
		p.LightIntensity = math32.Max(l.Intensity.Value, 0)
		p.LightSpecular = clamp01(l.Specular.Value)
	case LightPerParticle:
		p.LightColor = l.Color.Sample(r)
		p.LightIntensity = math32.Max(l.Intensity.Sample(r), 0)
		p.LightSpecular = clamp01(l.Specular.Sample(r))
	default:
		p.LightIntensity = 0
		p.LightSpecular = 0
	}
}
