package emitter

import (
	"testing"

	"github.com/gekko3d/gekkofx/sim/emission"
	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedShape hands out fixed spawn points in order.
type scriptedShape struct {
	points []mgl32.Vec3
	next   int
}

func (*scriptedShape) Kind() emission.ShapeKind { return emission.ShapePoint }

func (s *scriptedShape) Sample(rng.Source) mgl32.Vec3 {
	p := s.points[s.next%len(s.points)]
	s.next++
	return p
}

func quietConfig() Config {
	return Config{
		MaxParticles:   100,
		Loop:           true,
		TimeMultiplier: 1,
		Shape:          emission.PointShape{},
		Collider:       emission.Collider{Mass: emission.Fixed(1)},
	}
}

func TestEmitter_BurstScenario(t *testing.T) {
	cfg := quietConfig()
	cfg.Lifetime = emission.Fixed(2)
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnBurst, ParticlesPerEvent: 5, Frequency: 1}
	e := New(cfg, rng.New(1))

	// initial burst, then one burst per simulated second; the first batch
	// reaches its 2s lifetime on the fifth tick
	want := []int{5, 10, 10, 15, 10}
	for i, n := range want {
		e.Update(0.5)
		assert.Equal(t, n, e.Len(), "after tick %d", i+1)
	}
	assert.Equal(t, uint64(15), e.Stats().Spawned)
	assert.Equal(t, uint64(5), e.Stats().Expired)
}

func TestEmitter_PoolBound(t *testing.T) {
	cfg := quietConfig()
	cfg.MaxParticles = 20
	cfg.Lifetime = emission.Ranged(1, 0.5)
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnFlow, Frequency: 1000}
	e := New(cfg, rng.New(2))

	for i := 0; i < 200; i++ {
		e.Update(0.016)
		require.LessOrEqual(t, e.Len(), 20)
		for _, p := range e.Particles() {
			// ranged lifetimes are removed on the tick they pass their own cutoff
			require.Less(t, p.Lifetime, p.MaxLifetime)
			require.GreaterOrEqual(t, p.Lifetime, float32(0))
		}
	}
	assert.Equal(t, 20, e.Len())
}

func TestEmitter_NoLifetimeNeverExpires(t *testing.T) {
	cfg := quietConfig()
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 3}
	e := New(cfg, rng.New(3))
	for i := 0; i < 100; i++ {
		e.Update(1)
	}
	assert.Equal(t, 3, e.Len())
	assert.InDelta(t, 99, e.Particles()[0].Lifetime, 1e-3)
}

func TestEmitter_SemiImplicitEuler(t *testing.T) {
	cfg := quietConfig()
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 1}
	cfg.Forces = emission.Gravity(-10)
	e := New(cfg, rng.New(4))

	e.Update(0.1) // spawn
	require.Equal(t, 1, e.Len())
	e.Update(0.1)
	e.Update(0.1)

	p := e.Particles()[0]
	assert.InDelta(t, -2, p.Velocity.Y(), 1e-5)
	assert.InDelta(t, -0.3, p.Position.Y(), 1e-5)
	assert.InDelta(t, 4, e.MaxSpeedSq(), 1e-4)
	assert.InDelta(t, 0.09, e.MaxDistSq(), 1e-5)
}

func TestEmitter_BoundaryKillRemoves(t *testing.T) {
	cfg := quietConfig()
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 1}
	cfg.Shape = emission.PointShape{Point: mgl32.Vec3{0, 1.5, 0}}
	cfg.Velocity = emission.FixedVector(mgl32.Vec3{0, -10, 0})
	cfg.Boundary = emission.Boundary{Effect: emission.BoundaryKill, Volume: emission.NewPlane(mgl32.Vec3{0, 1, 0}, 0)}
	e := New(cfg, rng.New(5))

	e.Update(0.1) // spawned at y=1.5
	e.Update(0.1) // inside, moves to y=0.5
	e.Update(0.1) // still inside, moves below
	require.Equal(t, 1, e.Len())
	assert.Less(t, e.Particles()[0].Position.Y(), float32(0))

	e.Update(0.1)
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, uint64(1), e.Stats().Killed)
}

func TestEmitter_BoundaryContainKeepsParticlesInside(t *testing.T) {
	cfg := quietConfig()
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnFlow, Frequency: 50}
	cfg.Shape = emission.SphereShape{Radius: 1}
	cfg.Velocity = emission.RangedVector(emission.VectorRangeXYZ, mgl32.Vec3{}, mgl32.Vec3{5, 5, 5})
	cfg.Boundary = emission.Boundary{Effect: emission.BoundaryContain, Restitution: 0.5, Volume: emission.SphereVolume{Radius: 2}}
	e := New(cfg, rng.New(6))

	// boundary runs before integration, so a particle may overshoot by one step
	const dt = 0.02
	for i := 0; i < 300; i++ {
		e.Update(dt)
		for _, p := range e.Particles() {
			require.LessOrEqual(t, p.Position.Len(), 2+p.Velocity.Len()*dt+1e-3)
		}
	}
	assert.Equal(t, uint64(0), e.Stats().Killed)
}

func TestEmitter_StartDelayCarriesOver(t *testing.T) {
	cfg := quietConfig()
	cfg.StartDelay = 1
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 1}
	e := New(cfg, rng.New(7))

	e.Update(0.6)
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, float32(0), e.TotalTime())

	e.Update(0.6)
	assert.Equal(t, 1, e.Len())
	assert.InDelta(t, 0.2, e.TotalTime(), 1e-5)
}

func TestEmitter_TimeMultiplier(t *testing.T) {
	cfg := quietConfig()
	cfg.TimeMultiplier = 2
	cfg.Lifetime = emission.Fixed(1)
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 1}
	e := New(cfg, rng.New(8))

	e.Update(0.25)
	e.Update(0.25)
	assert.InDelta(t, 1, e.TotalTime(), 1e-6)
	assert.InDelta(t, 0.5, e.Particles()[0].Lifetime, 1e-6)
	e.Update(0.25)
	assert.Equal(t, 0, e.Len())
}

func TestEmitter_NonLoopStops(t *testing.T) {
	cfg := quietConfig()
	cfg.Loop = false
	cfg.MaxTime = 1
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnFlow, Frequency: 10}
	e := New(cfg, rng.New(9))

	e.Update(0.5)
	assert.Equal(t, 5, e.Len())
	e.Update(0.5)
	assert.Equal(t, StateStopping, e.State())
	assert.Equal(t, 5, e.Len(), "the stopping frame skips physics")

	e.Update(0.5)
	assert.Equal(t, StateStop, e.State())
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, float32(0), e.TotalTime())

	e.Update(0.5)
	assert.Equal(t, 0, e.Len())

	e.Play()
	e.Update(0.5)
	assert.Equal(t, 5, e.Len())
}

func TestEmitter_PauseAndRestart(t *testing.T) {
	cfg := quietConfig()
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 2}
	e := New(cfg, rng.New(10))

	e.Update(0.1)
	e.Update(0.1)
	e.Pause()
	e.Update(0.1)
	assert.Equal(t, StatePause, e.State())
	assert.InDelta(t, 0.1, e.Particles()[0].Lifetime, 1e-6)

	e.Restart()
	e.Update(0.1)
	assert.Equal(t, StatePlay, e.State())
	assert.Equal(t, 0, e.Len())

	// single spawn fires again after a reset
	e.Update(0.1)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, uint64(4), e.Stats().Spawned)
}

func TestEmitter_ParentTransform(t *testing.T) {
	cfg := quietConfig()
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 1}
	cfg.Velocity = emission.FixedVector(mgl32.Vec3{1, 0, 0})
	cfg.InheritSpeed = true

	e := New(cfg, rng.New(11))
	e.SetParent(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 1, 0})
	e.Update(0.1)
	require.Equal(t, 1, e.Len())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, e.Particles()[0].Position)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, e.Particles()[0].Velocity)

	cfg.LocalSpace = true
	cfg.InheritSpeed = false
	local := New(cfg, rng.New(11))
	local.SetParent(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 1, 0})
	local.Update(0.1)
	assert.Equal(t, mgl32.Vec3{}, local.Particles()[0].Position)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, local.Particles()[0].Velocity)
	assert.Equal(t, mgl32.Vec3{}, local.Origin())
}

func TestEmitter_IntervalGatesSpawning(t *testing.T) {
	cfg := quietConfig()
	cfg.MaxParticles = 1000
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnFlow, Frequency: 10}

	open := New(cfg, rng.New(12))
	cfg.Interval = emission.Interval{Kind: emission.IntervalCustom, Duration: [2]float32{1, 1}}
	gated := New(cfg, rng.New(12))

	for i := 0; i < 100; i++ {
		open.Update(0.1)
		gated.Update(0.1)
	}
	assert.InDelta(t, 100, open.Len(), 1)
	assert.InDelta(t, 45, gated.Len(), 5)
}

func TestEmitter_DeterministicUnderSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lifetime = emission.Ranged(2, 1)
	cfg.Shape = emission.HollowSphereShape{Sphere: emission.SphereShape{Radius: 2}, InnerRadius: 0.5}
	cfg.Velocity = emission.RangedVector(emission.VectorRangeXZ, mgl32.Vec3{0, 3, 0}, mgl32.Vec3{1, 0, 1})
	cfg.Forces = emission.Gravity(emission.DefaultGravity)
	cfg.Light = emission.Light{Kind: emission.LightPerParticle, Intensity: emission.Ranged(1, 0.5)}

	a, b := New(cfg, rng.New(42)), New(cfg, rng.New(42))
	for i := 0; i < 120; i++ {
		a.Update(1.0 / 60)
		b.Update(1.0 / 60)
	}
	require.NotZero(t, a.Len())
	assert.Equal(t, a.Particles(), b.Particles())
}

func TestEmitter_BroadphaseMatchesNaive(t *testing.T) {
	points := []mgl32.Vec3{{0, 0, 0}, {0.5, 0, 0}, {10, 0, 0}, {10.4, 0, 0}, {20, 0, 0}}
	build := func(broadphase bool) *ParticleEmitter {
		cfg := quietConfig()
		cfg.Spawn = emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: len(points)}
		cfg.Shape = &scriptedShape{points: points}
		cfg.Collider = emission.Collider{
			Kind:            emission.ColliderSphere,
			InterCollisions: true,
			Broadphase:      broadphase,
			Mass:            emission.Fixed(1),
			Radius:          emission.Fixed(0.3),
			Restitution:     emission.Fixed(0.5),
		}
		return New(cfg, rng.New(13))
	}

	naive, grid := build(false), build(true)
	for i := 0; i < 2; i++ {
		naive.Update(0.01)
		grid.Update(0.01)
	}

	assert.Equal(t, uint64(2), naive.Stats().Collisions)
	assert.Equal(t, naive.Stats(), grid.Stats())
	assert.Equal(t, naive.Particles(), grid.Particles())
	assert.InDelta(t, -0.05, naive.Particles()[0].Position.X(), 1e-5)
	assert.InDelta(t, 0.55, naive.Particles()[1].Position.X(), 1e-5)
}

func TestEmitter_BroadphaseFollowsChainedContacts(t *testing.T) {
	// pushing the third particle off the heavy one moves it into the second
	build := func() *ParticleEmitter {
		e := New(quietConfig(), rng.New(1))
		e.particles = []emission.Particle{
			{Position: mgl32.Vec3{0, 0, 0}, Mass: 1e6, CollisionRadius: 1},
			{Position: mgl32.Vec3{3.9, 0, 0}, Mass: 1, CollisionRadius: 1},
			{Position: mgl32.Vec3{0.1, 0, 0}, Mass: 1, CollisionRadius: 1},
		}
		e.alive = []bool{true, true, true}
		return e
	}

	naive, grid := build(), build()
	naive.collideNaive()
	grid.collideBroadphase()

	assert.Equal(t, uint64(2), naive.Stats().Collisions)
	assert.Equal(t, naive.Stats(), grid.Stats())
	assert.Equal(t, naive.Particles(), grid.Particles())
	assert.InDelta(t, 3.95, grid.Particles()[1].Position.X(), 1e-4)
	assert.InDelta(t, 1.95, grid.Particles()[2].Position.X(), 1e-4)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "unknown", State(42).String())
}
