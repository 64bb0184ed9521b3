package emission

import "github.com/chewxy/math32"

// Spawn decides how many particles to create on each tick.
//
// Single emits ParticlesPerEvent once. Burst emits ParticlesPerEvent on the first call
// and again every Frequency seconds. Flow emits continuously at Frequency particles per
// second, carrying the fractional remainder between ticks.
type Spawn struct {
	Kind              SpawnKind `json:"kind" yaml:"kind" toml:"kind"`
	ParticlesPerEvent int       `json:"particles_per_event" yaml:"particles_per_event" toml:"particles_per_event"`
	Frequency         float32   `json:"frequency" yaml:"frequency" toml:"frequency"`

	hasStarted bool
	timeOffset float32
}

func (s *Spawn) HasStarted() bool {
	return s.hasStarted
}

func (s *Spawn) Reset() {
	s.hasStarted = false
	s.timeOffset = 0
}

func (s *Spawn) CountNewParticles(dt float32) int {
	var count int
	switch s.Kind {
	case SpawnSingle:
		if !s.hasStarted {
			count = s.ParticlesPerEvent
		}
	case SpawnBurst:
		bursts := 0
		if s.Frequency > 0 {
			s.timeOffset += dt
			bursts = int(math32.Floor(s.timeOffset / s.Frequency))
			s.timeOffset -= float32(bursts) * s.Frequency
		}
		if !s.hasStarted {
			bursts++
		}
		count = s.ParticlesPerEvent * bursts
	case SpawnFlow:
		if s.Frequency > 0 {
			s.timeOffset += dt
			toAdd := math32.Floor(s.timeOffset * s.Frequency)
			s.timeOffset -= toAdd / s.Frequency
			count = int(toAdd)
		}
	}
	s.hasStarted = true
	if count < 0 {
		return 0
	}
	return count
}
