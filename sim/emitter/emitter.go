// Package emitter runs the per-emitter particle simulation: aging, collisions,
// boundary response, integration and spawning, driven once per tick by Update.
//
// An emitter owns its particle pool and is not safe for concurrent use. Separate
// emitters share nothing and can be stepped in parallel.
package emitter

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/gekko3d/gekkofx/sim/emission"
	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/gekko3d/gekkofx/sim/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

type State int

const (
	StateStop State = iota
	StatePlay
	StatePause
	StateStopping
	StateRestart
)

func (s State) String() string {
	switch s {
	case StateStop:
		return "stop"
	case StatePlay:
		return "play"
	case StatePause:
		return "pause"
	case StateStopping:
		return "stopping"
	case StateRestart:
		return "restart"
	}
	return "unknown"
}

// Config is everything an emitter is built from. Interval and Spawn carry running
// state; the emitter resets it on stop and restart.
type Config struct {
	MaxParticles   int
	Loop           bool
	MaxTime        float32 // only read when Loop is false
	TimeMultiplier float32
	StartDelay     float32
	// LocalSpace keeps particle positions relative to the emitter instead of
	// offsetting them by the parent position at spawn.
	LocalSpace   bool
	InheritSpeed bool

	Lifetime emission.SingleValue
	Interval emission.Interval
	Spawn    emission.Spawn
	Shape    emission.Shape
	Velocity emission.Vector
	Forces   emission.ExternalForces
	Boundary emission.Boundary
	Collider emission.Collider
	Light    emission.Light
}

func DefaultConfig() Config {
	return Config{
		MaxParticles:   100,
		Loop:           true,
		MaxTime:        5,
		TimeMultiplier: 1,
		Lifetime:       emission.Fixed(1),
		Spawn:          emission.Spawn{Kind: emission.SpawnFlow, ParticlesPerEvent: 1, Frequency: 10},
		Shape:          emission.PointShape{},
		Velocity:       emission.FixedVector(mgl32.Vec3{0, 1, 0}),
		Collider: emission.Collider{
			Kind:        emission.ColliderPoint,
			Mass:        emission.Fixed(1),
			Radius:      emission.Fixed(0.1),
			Restitution: emission.Fixed(0.5),
		},
	}
}

// Stats are cumulative over the emitter's life and survive resets.
type Stats struct {
	Spawned    uint64
	Expired    uint64
	Killed     uint64 // by the boundary
	Collisions uint64
}

type ParticleEmitter struct {
	Config

	state     State
	rng       rng.Source
	particles []emission.Particle
	alive     []bool

	totalTime   float32
	delayOffset float32
	maxDistSq   float32
	maxSpeedSq  float32

	parentPos mgl32.Vec3
	parentVel mgl32.Vec3

	stats      Stats
	grid       *spatial.HashGrid[int]
	candidates []int
}

// New returns a playing emitter drawing from src, or from a zero-seeded PCG when src is nil.
func New(cfg Config, src rng.Source) *ParticleEmitter {
	if src == nil {
		src = rng.New(0)
	}
	return &ParticleEmitter{
		Config: cfg,
		state:  StatePlay,
		rng:    src,
	}
}

func (e *ParticleEmitter) State() State { return e.state }

// Particles is the live pool. It is only valid until the next Update.
func (e *ParticleEmitter) Particles() []emission.Particle { return e.particles }

func (e *ParticleEmitter) Len() int            { return len(e.particles) }
func (e *ParticleEmitter) TotalTime() float32  { return e.totalTime }
func (e *ParticleEmitter) Stats() Stats        { return e.stats }
func (e *ParticleEmitter) MaxDistSq() float32  { return e.maxDistSq }
func (e *ParticleEmitter) MaxSpeedSq() float32 { return e.maxSpeedSq }

// SetParent feeds the world transform particles spawn from and inherit speed of.
func (e *ParticleEmitter) SetParent(pos, vel mgl32.Vec3) {
	e.parentPos = pos
	e.parentVel = vel
}

// Origin is the point MaxDistSq is measured from.
func (e *ParticleEmitter) Origin() mgl32.Vec3 {
	if e.LocalSpace {
		return mgl32.Vec3{}
	}
	return e.parentPos
}

func (e *ParticleEmitter) Play() {
	if e.state == StateStop || e.state == StatePause {
		e.state = StatePlay
	}
}

func (e *ParticleEmitter) Pause() {
	if e.state == StatePlay {
		e.state = StatePause
	}
}

// Stop clears the pool on the next Update.
func (e *ParticleEmitter) Stop() {
	if e.state != StateStop {
		e.state = StateStopping
	}
}

// Restart clears the pool on the next Update and resumes playing on the one after.
func (e *ParticleEmitter) Restart() {
	e.state = StateRestart
}

// Reconfigure swaps the configuration and restarts.
func (e *ParticleEmitter) Reconfigure(cfg Config) {
	e.Config = cfg
	e.Restart()
}

func (e *ParticleEmitter) Update(dt float32) {
	switch e.state {
	case StateStopping:
		e.reset()
		e.state = StateStop
	case StateRestart:
		e.reset()
		e.state = StatePlay
	case StatePlay:
		e.advance(dt)
	}
}

func (e *ParticleEmitter) reset() {
	clear(e.particles)
	e.particles = e.particles[:0]
	e.Interval.Reset()
	e.Spawn.Reset()
	e.totalTime = 0
	e.delayOffset = 0
	e.maxDistSq = 0
	e.maxSpeedSq = 0
}

func (e *ParticleEmitter) advance(dt float32) {
	localDt := dt * e.TimeMultiplier
	if e.delayOffset < e.StartDelay {
		e.delayOffset += localDt
		if e.delayOffset < e.StartDelay {
			return
		}
		// only the part of the frame past the delay is simulated
		localDt = e.delayOffset - e.StartDelay
	}

	e.totalTime += localDt
	if !e.Loop && e.totalTime >= e.MaxTime {
		e.state = StateStopping
		return
	}

	e.updateParticles(localDt)
	e.updateSpawn(localDt)
}

func (e *ParticleEmitter) expired(p *emission.Particle) bool {
	switch e.Lifetime.Kind {
	case emission.ValueFixed:
		return p.Lifetime >= e.Lifetime.Value
	case emission.ValueRange:
		return p.Lifetime >= p.MaxLifetime
	}
	return false
}

func (e *ParticleEmitter) updateParticles(dt float32) {
	n := len(e.particles)
	if n == 0 {
		e.maxDistSq, e.maxSpeedSq = 0, 0
		return
	}
	e.alive = slices.Grow(e.alive[:0], n)[:n]

	for i := range e.particles {
		p := &e.particles[i]
		p.Lifetime += dt
		e.alive[i] = !e.expired(p)
		if !e.alive[i] {
			e.stats.Expired++
		}
	}

	if e.Collider.InterCollisions {
		if e.Collider.Broadphase {
			e.collideBroadphase()
		} else {
			e.collideNaive()
		}
	}

	accel := e.Forces.Acceleration()
	for i := range e.particles {
		if !e.alive[i] {
			continue
		}
		p := &e.particles[i]
		if !e.Collider.Bounce(e.Boundary, p) {
			e.alive[i] = false
			e.stats.Killed++
			continue
		}
		// semi-implicit Euler
		p.Velocity = p.Velocity.Add(accel.Mul(dt))
		p.Position = p.Position.Add(p.Velocity.Mul(dt))
	}

	origin := e.Origin()
	var maxDist, maxSpeed float32
	live := e.particles[:0]
	for i := range e.particles {
		if !e.alive[i] {
			continue
		}
		p := e.particles[i]
		maxDist = math32.Max(maxDist, p.Position.Sub(origin).LenSqr())
		maxSpeed = math32.Max(maxSpeed, p.Velocity.LenSqr())
		live = append(live, p)
	}
	clear(e.particles[len(live):])
	e.particles = live
	e.maxDistSq, e.maxSpeedSq = maxDist, maxSpeed
}

func (e *ParticleEmitter) collideNaive() {
	ps := e.particles
	for i := range ps {
		if !e.alive[i] {
			continue
		}
		for j := i + 1; j < len(ps); j++ {
			if e.alive[j] && emission.ResolvePair(&ps[i], &ps[j]) {
				e.stats.Collisions++
			}
		}
	}
}

// collideBroadphase buckets live particles by their collision spheres and resolves
// candidate pairs in the same ascending order as the naive scan.
func (e *ParticleEmitter) collideBroadphase() {
	ps := e.particles
	var maxRadius float32
	for i := range ps {
		if e.alive[i] {
			maxRadius = math32.Max(maxRadius, ps[i].CollisionRadius)
		}
	}
	if maxRadius <= 0 {
		return
	}

	cell := 2 * maxRadius
	if e.grid == nil || e.grid.CellSize() != cell {
		e.grid = spatial.NewHashGrid[int](cell)
	} else {
		e.grid.Clear()
	}
	for i := range ps {
		if e.alive[i] {
			e.grid.Insert(i, spatial.BoxAround(ps[i].Position, ps[i].CollisionRadius))
		}
	}

	for i := range ps {
		if !e.alive[i] {
			continue
		}
		// a resolved pair moves both particles; refile them and query again from
		// i's new position so later pairs see the same positions as the naive scan
		last := i
		for resolved := true; resolved; {
			resolved = false
			e.candidates = e.grid.QueryRadius(e.candidates[:0], ps[i].Position, ps[i].CollisionRadius)
			slices.Sort(e.candidates)
			for _, j := range e.candidates {
				if j <= last {
					continue
				}
				last = j
				if emission.ResolvePair(&ps[i], &ps[j]) {
					e.stats.Collisions++
					e.grid.Insert(i, spatial.BoxAround(ps[i].Position, ps[i].CollisionRadius))
					e.grid.Insert(j, spatial.BoxAround(ps[j].Position, ps[j].CollisionRadius))
					resolved = true
					break
				}
			}
		}
	}
}

func (e *ParticleEmitter) updateSpawn(dt float32) {
	if !e.Interval.IsActive(&dt) {
		return
	}
	n := e.Spawn.CountNewParticles(dt)
	if room := e.MaxParticles - len(e.particles); n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		e.particles = append(e.particles, e.spawnOne())
	}
	if n > 0 {
		e.stats.Spawned += uint64(n)
	}
}

// spawnOne draws lifetime, position, velocity, collider and light attributes in
// that order.
func (e *ParticleEmitter) spawnOne() emission.Particle {
	var p emission.Particle
	p.MaxLifetime = e.Lifetime.Sample(e.rng)

	if e.Shape != nil {
		p.Position = e.Shape.Sample(e.rng)
	}
	if !e.LocalSpace {
		p.Position = p.Position.Add(e.parentPos)
	}

	p.Velocity = e.Velocity.Sample(e.rng)
	if e.InheritSpeed {
		p.Velocity = p.Velocity.Add(e.parentVel)
	}

	e.Collider.Apply(&p, e.rng)
	e.Light.Apply(&p, e.rng)
	return p
}
