package gekkofx

import (
	"time"

	"github.com/gekko3d/gekkofx/sim/emitter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ParticleMetrics exports simulation counters. Counters advance by the
// difference between each emitter's cumulative stats and the last frame's.
type ParticleMetrics struct {
	Live       prometheus.Gauge
	Emitters   *prometheus.GaugeVec
	Spawned    prometheus.Counter
	Expired    prometheus.Counter
	Killed     prometheus.Counter
	Collisions prometheus.Counter
	Packed     prometheus.Gauge
	Culled     prometheus.Gauge
	FrameTime  prometheus.Histogram

	last       map[EntityId]emitter.Stats
	seen       map[EntityId]struct{}
	frameStart time.Time
}

func NewParticleMetrics(reg prometheus.Registerer, namespace string) *ParticleMetrics {
	factory := promauto.With(reg)
	return &ParticleMetrics{
		Live: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "particles_live",
			Help:      "Particles alive after the last frame.",
		}),
		Emitters: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "emitters",
			Help:      "Emitters by state.",
		}, []string{"state"}),
		Spawned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "particles_spawned_total",
			Help:      "Particles spawned.",
		}),
		Expired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "particles_expired_total",
			Help:      "Particles removed at the end of their lifetime.",
		}),
		Killed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "particles_killed_total",
			Help:      "Particles removed by a kill boundary.",
		}),
		Collisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "particle_collisions_total",
			Help:      "Resolved inter-particle collisions.",
		}),
		Packed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "particles_packed",
			Help:      "Particle instances packed for drawing in the last frame.",
		}),
		Culled: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "emitters_culled",
			Help:      "Emitters skipped by frustum culling in the last frame.",
		}),
		FrameTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_seconds",
			Help:      "Wall time spent from PreUpdate to the end of PostUpdate.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		last: make(map[EntityId]emitter.Stats),
		seen: make(map[EntityId]struct{}),
	}
}

var emitterStates = []emitter.State{
	emitter.StateStop, emitter.StatePlay, emitter.StatePause, emitter.StateStopping, emitter.StateRestart,
}

func (m *ParticleMetrics) beginFrame() {
	m.frameStart = time.Now()
}

func (m *ParticleMetrics) endFrame(cmd *Commands) {
	if !m.frameStart.IsZero() {
		m.FrameTime.Observe(time.Since(m.frameStart).Seconds())
	}

	counts := make(map[emitter.State]int, len(emitterStates))
	live := 0
	clear(m.seen)
	MakeQuery1[ParticleEmitterComponent](cmd).Map(func(eid EntityId, em *ParticleEmitterComponent) bool {
		if em.Emitter == nil {
			return true
		}
		m.seen[eid] = struct{}{}
		counts[em.Emitter.State()]++
		live += em.Emitter.Len()

		now, prev := em.Emitter.Stats(), m.last[eid]
		m.Spawned.Add(delta(now.Spawned, prev.Spawned))
		m.Expired.Add(delta(now.Expired, prev.Expired))
		m.Killed.Add(delta(now.Killed, prev.Killed))
		m.Collisions.Add(delta(now.Collisions, prev.Collisions))
		m.last[eid] = now
		return true
	})
	for eid := range m.last {
		if _, ok := m.seen[eid]; !ok {
			delete(m.last, eid)
		}
	}

	m.Live.Set(float64(live))
	for _, s := range emitterStates {
		m.Emitters.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}

// delta tolerates an emitter swapped for a fresh one between frames.
func delta(now, prev uint64) float64 {
	if now < prev {
		return float64(now)
	}
	return float64(now - prev)
}

func (m *ParticleMetrics) observeFrame(frame *ParticleFrame) {
	m.Packed.Set(float64(len(frame.Instances)))
	m.Culled.Set(float64(frame.Culled))
}

// MetricsModule registers ParticleMetrics with Registerer, or with the default
// registry when it is nil. It reads the ParticleFrame that ParticlesModule
// provides.
type MetricsModule struct {
	Registerer prometheus.Registerer
	Namespace  string
}

func (m MetricsModule) Install(app *App, cmd *Commands) {
	reg := m.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := m.Namespace
	if ns == "" {
		ns = "gekkofx"
	}
	cmd.AddResources(NewParticleMetrics(reg, ns))

	app.UseSystem(
		System(func(m *ParticleMetrics) { m.beginFrame() }).
			InStage(PreUpdate),
	)
	app.UseSystem(
		System(func(m *ParticleMetrics, cmd *Commands) { m.endFrame(cmd) }).
			InStage(PostUpdate),
	)
	app.UseSystem(
		System(func(m *ParticleMetrics, frame *ParticleFrame) { m.observeFrame(frame) }).
			InStage(PostRender),
	)
}
