// Package rng provides the random sources consumed by the particle simulation.
//
// Every policy draws through an explicitly passed Source, so an emitter seeded with
// the same value replays the same frames.
package rng

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Source interface {
	// Float returns a uniform value in [0,1).
	Float() float32
	// FloatN returns a deviate symmetric around zero in [-1,1).
	FloatN() float32
	// UnitVector returns a uniformly distributed direction.
	UnitVector() mgl32.Vec3
	// Vec returns a vector with each component uniform in [0,1).
	Vec() mgl32.Vec3
}

// PCG is the default Source, a thin wrapper over math/rand/v2's PCG generator.
type PCG struct {
	r *rand.Rand
}

func New(seed uint64) *PCG {
	return &PCG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *PCG) Float() float32 {
	return p.r.Float32()
}

func (p *PCG) FloatN() float32 {
	return 2*p.r.Float32() - 1
}

func (p *PCG) Vec() mgl32.Vec3 {
	return mgl32.Vec3{p.r.Float32(), p.r.Float32(), p.r.Float32()}
}

func (p *PCG) UnitVector() mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			float32(p.r.NormFloat64()),
			float32(p.r.NormFloat64()),
			float32(p.r.NormFloat64()),
		}
		if l := v.Len(); l > 1e-6 {
			return v.Mul(1 / l)
		}
	}
}

// Sequence replays scripted values, cycling when exhausted. Float and FloatN read from
// Values; Vec reads three consecutive values. UnitVector normalizes three consecutive
// values and falls back to +Y when they are all zero.
type Sequence struct {
	Values []float32
	next   int
}

func (s *Sequence) pop() float32 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}

func (s *Sequence) Float() float32  { return s.pop() }
func (s *Sequence) FloatN() float32 { return s.pop() }

func (s *Sequence) Vec() mgl32.Vec3 {
	return mgl32.Vec3{s.pop(), s.pop(), s.pop()}
}

func (s *Sequence) UnitVector() mgl32.Vec3 {
	v := s.Vec()
	l := math32.Sqrt(v.Dot(v))
	if l == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return v.Mul(1 / l)
}
