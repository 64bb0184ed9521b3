package emission

import "github.com/go-gl/mathgl/mgl32"

// Particle is a pool-owned value; emitters never hand out pointers that outlive a tick.
type Particle struct {
	Lifetime    float32 // elapsed seconds
	MaxLifetime float32 // cutoff drawn at spawn, read under ranged lifetimes

	Position mgl32.Vec3
	Velocity mgl32.Vec3

	Mass            float32
	CollisionRadius float32
	Restitution     float32

	LightColor     mgl32.Vec3
	LightIntensity float32
	LightSpecular  float32
}

func (p *Particle) InverseMass() float32 {
	if p.Mass <= 0 {
		return 0
	}
	return 1 / p.Mass
}
