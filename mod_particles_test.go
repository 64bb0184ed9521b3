package gekkofx

import (
	"testing"
	"time"

	"github.com/gekko3d/gekkofx/sim/emission"
	"github.com/gekko3d/gekkofx/sim/emitter"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStep = 100 * time.Millisecond

// puffConfig spawns five particles once, moving +X at one unit per second.
func puffConfig() emitter.Config {
	return emitter.Config{
		MaxParticles:   10,
		Loop:           true,
		TimeMultiplier: 1,
		Lifetime:       emission.Fixed(100),
		Spawn:          emission.Spawn{Kind: emission.SpawnSingle, ParticlesPerEvent: 5},
		Shape:          emission.PointShape{},
		Velocity:       emission.FixedVector(mgl32.Vec3{1, 0, 0}),
	}
}

func newParticlesApp(modules ...Module) *App {
	return NewApp().UseModules(append([]Module{
		TimeModule{FixedStep: testStep},
		ParticlesModule{},
	}, modules...)...)
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "axis %d of %v", i, got)
	}
}

func TestParticles_SpawnFromTransform(t *testing.T) {
	app := newParticlesApp()
	cmd := app.Commands()
	em := NewParticleEmitterComponent(puffConfig(), 1)
	tr := NewTransform(mgl32.Vec3{10, 0, 0})
	eid := cmd.AddEntity(em, &tr)

	app.Step()
	require.Equal(t, 5, em.Emitter.Len())
	for _, p := range em.Emitter.Particles() {
		assertVecNear(t, mgl32.Vec3{10, 0, 0}, p.Position)
	}

	app.Step()
	frame, ok := Resource[ParticleFrame](app)
	require.True(t, ok)
	require.Len(t, frame.Instances, 5)
	assert.Equal(t, 1, frame.Emitters)
	assert.Equal(t, 0, frame.Culled)
	for _, inst := range frame.Instances {
		assert.Equal(t, eid, inst.Emitter)
		assertVecNear(t, mgl32.Vec3{10.1, 0, 0}, inst.Pos)
	}

	bounds, ok := GetComponent[BoundsComponent](cmd, eid)
	require.True(t, ok)
	assert.False(t, bounds.Empty)
	assertVecNear(t, mgl32.Vec3{10, 0, 0}, bounds.Box.Center())
	assert.InDelta(t, 0.1, bounds.Box.Max.X()-10, 1e-4)
}

func TestParticles_BoundsCoverFreshSpawns(t *testing.T) {
	app := newParticlesApp()
	cmd := app.Commands()
	cfg := puffConfig()
	cfg.Shape = emission.BoxShape{Min: mgl32.Vec3{10, 0, 10}, Max: mgl32.Vec3{20, 0, 20}}
	em := NewParticleEmitterComponent(cfg, 1)
	tr := NewTransform(mgl32.Vec3{})
	eid := cmd.AddEntity(em, &tr)

	app.Step()
	require.Equal(t, 5, em.Emitter.Len())
	bounds, ok := GetComponent[BoundsComponent](cmd, eid)
	require.True(t, ok)
	require.False(t, bounds.Empty)
	for _, p := range em.Emitter.Particles() {
		for i := range p.Position {
			assert.LessOrEqual(t, bounds.Box.Min[i], p.Position[i], "axis %d of %v", i, p.Position)
			assert.GreaterOrEqual(t, bounds.Box.Max[i], p.Position[i], "axis %d of %v", i, p.Position)
		}
	}
}

func TestParticles_LocalSpace(t *testing.T) {
	app := newParticlesApp()
	cmd := app.Commands()
	cfg := puffConfig()
	cfg.LocalSpace = true
	em := NewParticleEmitterComponent(cfg, 1)
	tr := NewTransform(mgl32.Vec3{10, 0, 0})
	tr.Scale = mgl32.Vec3{2, 2, 2}
	cmd.AddEntity(em, &tr)

	app.RunFrames(2)
	for _, p := range em.Emitter.Particles() {
		assertVecNear(t, mgl32.Vec3{0.1, 0, 0}, p.Position)
	}

	frame, _ := Resource[ParticleFrame](app)
	require.Len(t, frame.Instances, 5)
	assertVecNear(t, mgl32.Vec3{10.2, 0, 0}, frame.Instances[0].Pos)

	// moving the parent carries live particles along
	tr.Position = mgl32.Vec3{0, 0, 30}
	app.Step()
	frame, _ = Resource[ParticleFrame](app)
	assertVecNear(t, mgl32.Vec3{0.4, 0, 30}, frame.Instances[0].Pos)
}

func TestParticles_InheritSpeed(t *testing.T) {
	app := newParticlesApp()
	cmd := app.Commands()
	cfg := puffConfig()
	cfg.InheritSpeed = true
	cfg.Velocity = emission.Vector{}
	cfg.StartDelay = 0.15
	em := NewParticleEmitterComponent(cfg, 1)
	tr := NewTransform(mgl32.Vec3{})
	cmd.AddEntity(em, &tr)

	app.Step()
	assert.Equal(t, 0, em.Emitter.Len(), "still in the start delay")

	tr.Position = mgl32.Vec3{1, 0, 0}
	app.Step()
	require.Equal(t, 5, em.Emitter.Len())
	assertVecNear(t, mgl32.Vec3{10, 0, 0}, em.Emitter.Particles()[0].Velocity)
}

func TestParticles_WithoutTransform(t *testing.T) {
	app := newParticlesApp()
	em := NewParticleEmitterComponent(puffConfig(), 1)
	app.Commands().AddEntity(em)

	app.RunFrames(2)
	frame, _ := Resource[ParticleFrame](app)
	require.Len(t, frame.Instances, 5)
	assertVecNear(t, mgl32.Vec3{0.1, 0, 0}, frame.Instances[0].Pos)
}

func TestParticles_DespawnOnStop(t *testing.T) {
	app := newParticlesApp()
	cmd := app.Commands()
	cfg := puffConfig()
	cfg.Loop = false
	cfg.MaxTime = 0.25
	em := NewParticleEmitterComponent(cfg, 1)
	em.DespawnOnStop = true
	tr := NewTransform(mgl32.Vec3{})
	eid := cmd.AddEntity(em, &tr)

	app.RunFrames(3)
	assert.Equal(t, emitter.StateStopping, em.Emitter.State())
	assert.True(t, HasComponent[ParticleEmitterComponent](cmd, eid))

	app.Step()
	assert.Equal(t, emitter.StateStop, em.Emitter.State())
	assert.False(t, HasComponent[ParticleEmitterComponent](cmd, eid))
}

func TestParticles_EmptyEmitterBounds(t *testing.T) {
	app := newParticlesApp()
	cmd := app.Commands()
	cfg := puffConfig()
	cfg.StartDelay = 10
	eid := cmd.AddEntity(NewParticleEmitterComponent(cfg, 1))

	app.Step()
	bounds, ok := GetComponent[BoundsComponent](cmd, eid)
	require.True(t, ok)
	assert.True(t, bounds.Empty)
	frame, _ := Resource[ParticleFrame](app)
	assert.Equal(t, 0, frame.Emitters)
}

func flowConfig() emitter.Config {
	cfg := emitter.DefaultConfig()
	cfg.Spawn = emission.Spawn{Kind: emission.SpawnFlow, Frequency: 30}
	cfg.Lifetime = emission.Ranged(1, 0.5)
	cfg.Velocity = emission.RangedVector(emission.VectorRangeXYZ, mgl32.Vec3{0, 3, 0}, mgl32.Vec3{1, 1, 1})
	cfg.Forces = emission.Gravity(emission.DefaultGravity)
	cfg.Collider.InterCollisions = true
	return cfg
}

func TestParticles_ParallelMatchesSerial(t *testing.T) {
	run := func(parallel bool) [][]emission.Particle {
		app := NewApp().UseModules(TimeModule{FixedStep: testStep}, ParticlesModule{Parallel: parallel})
		cmd := app.Commands()
		var emitters []*ParticleEmitterComponent
		for i := 0; i < 4; i++ {
			em := NewParticleEmitterComponent(flowConfig(), uint64(i+1))
			tr := NewTransform(mgl32.Vec3{float32(i) * 5, 0, 0})
			cmd.AddEntity(em, &tr)
			emitters = append(emitters, em)
		}
		app.RunFrames(20)

		var out [][]emission.Particle
		for _, em := range emitters {
			out = append(out, append([]emission.Particle(nil), em.Emitter.Particles()...))
		}
		return out
	}

	serial := run(false)
	require.NotEmpty(t, serial[0])
	assert.Equal(t, serial, run(true))
}

func TestParticles_FrustumCulling(t *testing.T) {
	for name, modules := range map[string][]Module{
		"bounds only": nil,
		"scene index": {SpatialModule{}},
	} {
		t.Run(name, func(t *testing.T) {
			app := newParticlesApp(modules...)
			cmd := app.Commands()
			camera, ok := Resource[ParticleCamera](app)
			require.True(t, ok)
			camera.ViewProj = mgl32.Ortho(-10, 10, -10, 10, -10, 10)
			camera.Enabled = true

			near := NewTransform(mgl32.Vec3{})
			far := NewTransform(mgl32.Vec3{100, 0, 0})
			nearId := cmd.AddEntity(NewParticleEmitterComponent(puffConfig(), 1), &near)
			cmd.AddEntity(NewParticleEmitterComponent(puffConfig(), 2), &far)

			app.RunFrames(2)
			frame, _ := Resource[ParticleFrame](app)
			assert.Equal(t, 2, frame.Emitters)
			assert.Equal(t, 1, frame.Culled)
			require.Len(t, frame.Instances, 5)
			assert.Equal(t, nearId, frame.Instances[0].Emitter)

			camera.Enabled = false
			app.Step()
			assert.Equal(t, 0, frame.Culled)
			assert.Len(t, frame.Instances, 10)
		})
	}
}
