package emission

// Interval duty-cycles spawning. Duration holds the [closed, open] phase lengths.
//
// Intermittent mode toggles every Duration[1] seconds in both phases; Duration[0] is
// only read in Custom mode.
type Interval struct {
	Kind     IntervalKind `json:"kind" yaml:"kind" toml:"kind"`
	Duration [2]float32   `json:"duration" yaml:"duration" toml:"duration"`

	closed     bool
	timeOffset float32
}

func (i *Interval) Open() bool {
	return !i.closed
}

func (i *Interval) TimeOffset() float32 {
	return i.timeOffset
}

func (i *Interval) Reset() {
	i.closed = false
	i.timeOffset = 0
}

// IsActive advances the interval by *dt and reports whether it is open afterwards.
// On every phase flip *dt loses the overshoot past the phase threshold, leaving the
// caller with the portion of the step that elapsed before the flip.
func (i *Interval) IsActive(dt *float32) bool {
	switch i.Kind {
	case IntervalIntermittent, IntervalCustom:
		i.timeOffset += *dt
		for {
			threshold := i.threshold()
			// a non-positive phase would flip forever
			if threshold <= 0 || i.timeOffset < threshold {
				break
			}
			i.timeOffset -= threshold
			*dt -= i.timeOffset
			i.closed = !i.closed
		}
		if *dt < 0 {
			*dt = 0
		}
		return !i.closed
	default:
		i.closed = false
		return true
	}
}

func (i *Interval) threshold() float32 {
	if i.Kind == IntervalCustom && i.closed {
		return i.Duration[0]
	}
	return i.Duration[1]
}
