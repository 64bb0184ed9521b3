package emission

import "github.com/go-gl/mathgl/mgl32"

const DefaultGravity float32 = -9.81

type ExternalForces struct {
	Kind    ForceKind  `json:"kind" yaml:"kind" toml:"kind"`
	Gravity float32    `json:"gravity" yaml:"gravity" toml:"gravity"`
	Wind    mgl32.Vec3 `json:"wind" yaml:"wind" toml:"wind"`
}

func Gravity(g float32) ExternalForces {
	return ExternalForces{Kind: ForceGravity, Gravity: g}
}

func (f ExternalForces) Acceleration() mgl32.Vec3 {
	switch f.Kind {
	case ForceGravity:
		return mgl32.Vec3{0, f.Gravity, 0}
	case ForceWind:
		return f.Wind
	case ForceWindGravity:
		return mgl32.Vec3{f.Wind.X(), f.Wind.Y() + f.Gravity, f.Wind.Z()}
	default:
		return mgl32.Vec3{}
	}
}
