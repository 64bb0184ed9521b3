package gekkofx

import (
	"time"
)

type Time struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration
	Frame   uint64
}

// DtSeconds is the frame delta the simulation consumes.
func (t *Time) DtSeconds() float32 {
	return float32(t.Dt.Seconds())
}

// TimeModule advances Time once per frame in Prelude. A positive FixedStep
// replaces wall clock deltas, which makes headless runs reproducible.
type TimeModule struct {
	FixedStep time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	app.UseSystem(
		System(mod.timeSystem).
			InStage(Prelude),
	)
}

func (mod TimeModule) timeSystem(timeResource *Time) {
	if mod.FixedStep > 0 {
		timeResource.Dt = mod.FixedStep
		timeResource.Time = timeResource.Time.Add(mod.FixedStep)
	} else {
		now := time.Now()
		timeResource.Dt = now.Sub(timeResource.Time)
		timeResource.Time = now
	}
	timeResource.Elapsed += timeResource.Dt
	timeResource.Frame++
}
