package gekkofx

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/gekko3d/gekkofx/sim/emission"
	"github.com/gekko3d/gekkofx/sim/emitter"
	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/gekko3d/gekkofx/sim/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

// ParticleEmitterComponent attaches a simulated emitter to an entity. With a
// TransformComponent on the same entity, particles spawn from its position and
// inherit the velocity derived from its motion.
type ParticleEmitterComponent struct {
	Emitter *emitter.ParticleEmitter
	// Preset is the library entry the emitter was built from, if any.
	Preset AssetId
	// DespawnOnStop removes the entity once the emitter reaches the stopped state.
	DespawnOnStop bool

	lastPos   mgl32.Vec3
	hasLast   bool
	lastState emitter.State
}

func NewParticleEmitterComponent(cfg emitter.Config, seed uint64) *ParticleEmitterComponent {
	return &ParticleEmitterComponent{
		Emitter:   emitter.New(cfg, rng.New(seed)),
		lastState: emitter.StatePlay,
	}
}

// ParticleInstance is one packed particle ready for drawing.
type ParticleInstance struct {
	Pos       mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Specular  float32
	Emitter   EntityId
}

// ParticleFrame is rebuilt every frame in PreRender.
type ParticleFrame struct {
	Instances []ParticleInstance
	Emitters  int
	Culled    int
}

// ParticleCamera enables frustum culling of whole emitters when Enabled.
type ParticleCamera struct {
	ViewProj mgl32.Mat4
	Enabled  bool
}

type ParticlesModule struct {
	// Parallel steps emitters on separate goroutines.
	Parallel bool
}

func (m ParticlesModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&ParticleFrame{}, &ParticleCamera{})
	app.UseSystem(
		System(func(t *Time, cmd *Commands, log Logger) {
			particlesStepSystem(t, cmd, log, m.Parallel)
		}).InStage(Update),
	)
	app.UseSystem(
		System(particlesPackSystem).
			InStage(PreRender),
	)
}

type emitterJob struct {
	eid EntityId
	em  *ParticleEmitterComponent
	tr  *TransformComponent
}

func particlesStepSystem(t *Time, cmd *Commands, log Logger, parallel bool) {
	dt := t.DtSeconds()
	var jobs []emitterJob

	MakeQuery2[ParticleEmitterComponent, TransformComponent](cmd).Map(func(eid EntityId, em *ParticleEmitterComponent, tr *TransformComponent) bool {
		if em.Emitter == nil {
			return true
		}
		if tr != nil {
			var vel mgl32.Vec3
			if em.hasLast && dt > 0 {
				vel = tr.Position.Sub(em.lastPos).Mul(1 / dt)
			}
			em.Emitter.SetParent(tr.Position, vel)
			em.lastPos, em.hasLast = tr.Position, true
		}
		jobs = append(jobs, emitterJob{eid: eid, em: em, tr: tr})
		return true
	}, TransformComponent{})

	if parallel && len(jobs) > 1 {
		var wg sync.WaitGroup
		for _, job := range jobs {
			wg.Add(1)
			go func(e *emitter.ParticleEmitter) {
				defer wg.Done()
				e.Update(dt)
			}(job.em.Emitter)
		}
		wg.Wait()
	} else {
		for _, job := range jobs {
			job.em.Emitter.Update(dt)
		}
	}

	for _, job := range jobs {
		e := job.em.Emitter
		if state := e.State(); state != job.em.lastState {
			log.Debugf("particles: emitter %d %s -> %s", job.eid, job.em.lastState, state)
			job.em.lastState = state
			if state == emitter.StateStop && job.em.DespawnOnStop {
				cmd.RemoveEntity(job.eid)
				continue
			}
		}
		bounds := emitterBounds(e, job.tr)
		if b, ok := GetComponent[BoundsComponent](cmd, job.eid); ok {
			*b = bounds
		} else {
			cmd.AddComponents(job.eid, &bounds)
		}
	}
}

// emitterBounds is the world box around every live particle of e, including those
// spawned on the last update.
func emitterBounds(e *emitter.ParticleEmitter, tr *TransformComponent) BoundsComponent {
	if e.Len() == 0 {
		return BoundsComponent{Empty: true}
	}
	center := e.Origin()
	var maxDistSq, maxCollision float32
	for _, p := range e.Particles() {
		maxDistSq = math32.Max(maxDistSq, p.Position.Sub(center).LenSqr())
		maxCollision = math32.Max(maxCollision, p.CollisionRadius)
	}
	radius := math32.Sqrt(maxDistSq)
	if e.LocalSpace && tr != nil {
		center = tr.Position
		radius *= maxAbs(tr.Scale)
	}
	return BoundsComponent{Box: spatial.BoxAround(center, radius+maxCollision)}
}

func maxAbs(v mgl32.Vec3) float32 {
	return math32.Max(math32.Abs(v.X()), math32.Max(math32.Abs(v.Y()), math32.Abs(v.Z())))
}

func particlesPackSystem(frame *ParticleFrame, camera *ParticleCamera, cmd *Commands) {
	frame.Instances = frame.Instances[:0]
	frame.Emitters = 0
	frame.Culled = 0

	var frustum spatial.Frustum
	var index *SceneIndex
	var visible map[EntityId]struct{}
	if camera.Enabled {
		frustum = spatial.FrustumFromMatrix(camera.ViewProj)
		if idx, ok := GetResource[SceneIndex](cmd); ok {
			index = idx
			visible = make(map[EntityId]struct{})
			for _, eid := range index.Visible(nil, frustum) {
				visible[eid] = struct{}{}
			}
		}
	}

	MakeQuery3[ParticleEmitterComponent, TransformComponent, BoundsComponent](cmd).Map(func(eid EntityId, em *ParticleEmitterComponent, tr *TransformComponent, b *BoundsComponent) bool {
		if em.Emitter == nil || em.Emitter.Len() == 0 {
			return true
		}
		frame.Emitters++
		if camera.Enabled && !emitterVisible(eid, b, frustum, index, visible) {
			frame.Culled++
			return true
		}
		frame.Instances = packEmitter(frame.Instances, eid, em.Emitter, tr)
		return true
	}, TransformComponent{}, BoundsComponent{})
}

// emitterVisible answers from the scene index when the emitter is indexed and
// tests its bounds directly otherwise.
func emitterVisible(eid EntityId, b *BoundsComponent, f spatial.Frustum, index *SceneIndex, visible map[EntityId]struct{}) bool {
	if index != nil {
		if _, indexed := index.Box(eid); indexed {
			_, ok := visible[eid]
			return ok
		}
	}
	if b == nil || b.Empty {
		return true
	}
	return f.IntersectsAABB(b.Box)
}

func packEmitter(dst []ParticleInstance, eid EntityId, e *emitter.ParticleEmitter, tr *TransformComponent) []ParticleInstance {
	toWorld := e.LocalSpace && tr != nil
	for _, p := range e.Particles() {
		pos := p.Position
		if toWorld {
			pos = tr.Point(pos)
		}
		dst = append(dst, instanceOf(eid, pos, p))
	}
	return dst
}

func instanceOf(eid EntityId, pos mgl32.Vec3, p emission.Particle) ParticleInstance {
	return ParticleInstance{
		Pos:       pos,
		Color:     p.LightColor,
		Intensity: p.LightIntensity,
		Specular:  p.LightSpecular,
		Emitter:   eid,
	}
}
