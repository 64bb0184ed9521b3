package gekkofx

// LifetimeComponent removes its entity after TimeLeft seconds, such as a
// one-shot effect spawned at an impact point.
type LifetimeComponent struct {
	TimeLeft float32
}

type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(lifetimeSystem).
			InStage(PostUpdate),
	)
}

func lifetimeSystem(time *Time, cmd *Commands, log Logger) {
	dt := time.DtSeconds()
	if dt <= 0 {
		return
	}
	MakeQuery1[LifetimeComponent](cmd).Map(func(eid EntityId, lt *LifetimeComponent) bool {
		lt.TimeLeft -= dt
		if lt.TimeLeft <= 0 {
			log.Debugf("lifecycle: entity %d expired", eid)
			cmd.RemoveEntity(eid)
		}
		return true
	})
}

// SpawnEffect adds a one-shot emitter entity at position that is removed after
// ttl seconds, or when the emitter stops if ttl is not positive.
func SpawnEffect(cmd *Commands, em *ParticleEmitterComponent, position TransformComponent, ttl float32) EntityId {
	if ttl > 0 {
		return cmd.AddEntity(em, &position, &LifetimeComponent{TimeLeft: ttl})
	}
	em.DespawnOnStop = true
	return cmd.AddEntity(em, &position)
}
