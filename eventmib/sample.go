package eventmib

import (
	"github.com/pkg/errors"

	"github.com/duniansampa/priot/ber"
)

// outcome is an evaluated test result for one sampled instance, naming
// which event reference (if any) it fires.
type outcome struct {
	instance string
	eventRef string
	sample   int64
}

// sampleAndEvaluate takes one tick's samples for trigger t, updates its
// runtime state, and returns the outcomes to fire.
func (e *Engine) sampleAndEvaluate(t *Trigger) ([]outcome, error) {
	samples, err := e.sampleTrigger(t)
	if err != nil {
		return []outcome{{eventRef: t.Events.Failure}}, errors.Wrap(err, "sample trigger")
	}

	t.state.previous = t.state.current
	t.state.current = samples

	var effective map[string]int64
	if t.Delta {
		effective, err = e.applyDelta(t, samples)
		if err != nil {
			return nil, errors.Wrap(err, "delta sample")
		}
	} else {
		effective = samples
	}

	var outcomes []outcome
	first := !t.state.started
	t.state.started = true

	for instance, sample := range effective {
		if t.Tests&TestExistence != 0 {
			if o, fire := t.evaluateExistence(instance, first); fire {
				outcomes = append(outcomes, o)
			}
		}
		if t.Tests&TestBoolean != 0 {
			if o, fire := t.evaluateBoolean(instance, sample, first); fire {
				outcomes = append(outcomes, o)
			}
		}
		if t.Tests&TestThreshold != 0 {
			if o, fire := t.evaluateThreshold(instance, sample, first); fire {
				outcomes = append(outcomes, o)
			}
		}
	}
	return outcomes, nil
}

func (e *Engine) sampleTrigger(t *Trigger) (map[string]int64, error) {
	if !t.Wildcarded {
		v, err := sampleInt(e.Query, e.Context, t.OID)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"": v}, nil
	}
	return walkPrefix(e.Query, e.Context, t.OID)
}

// applyDelta samples the discontinuity OID (default sysUpTime) and emits
// current-previous only if it did not reset between samples, per spec
// §4.4 "Delta sampling".
func (e *Engine) applyDelta(t *Trigger, samples map[string]int64) (map[string]int64, error) {
	discOID := t.DiscontinuityOID
	if len(discOID) == 0 {
		discOID = sysUpTimeOID
	}

	out := make(map[string]int64, len(samples))
	for instance, cur := range samples {
		discCur, err := e.sampleDiscontinuity(discOID, instance, t.Wildcarded)
		if err != nil {
			return nil, err
		}
		prevDisc, hadPrev := t.state.discPrevious[instance]
		t.state.discPrevious[instance] = discCur

		prev, hadPrevSample := t.state.previous[instance]
		if !hadPrev || !hadPrevSample || discCur < prevDisc {
			continue // discontinuity reset, or no prior sample to delta against
		}
		out[instance] = cur - prev
	}
	return out, nil
}

func (e *Engine) sampleDiscontinuity(discOID ber.OID, instance string, wildcarded bool) (int64, error) {
	if !wildcarded || instance == "" {
		return sampleInt(e.Query, e.Context, discOID)
	}
	full := append(discOID.Clone(), parseSuffix(instance)...)
	return sampleInt(e.Query, e.Context, full)
}

func parseSuffix(instance string) ber.OID {
	if instance == "" {
		return nil
	}
	return ber.ParseOIDString(instance)
}

// sysUpTimeOID is the default discontinuity OID for delta sampling, per
// spec §4.4.
var sysUpTimeOID = ber.OID{1, 3, 6, 1, 2, 1, 1, 3, 0}

// evaluateExistence fires only for the present transition, and only when
// Startup is set: on the first sample, or the first time an instance is
// seen. The absent and changed transitions are not evaluated.
func (t *Trigger) evaluateExistence(instance string, first bool) (outcome, bool) {
	wasSeen := t.state.existenceSeen[instance]
	t.state.existenceSeen[instance] = true

	if first || !wasSeen {
		if t.Existence.Startup && t.Existence.Bits&ExistencePresent != 0 {
			return outcome{instance: instance, eventRef: t.Events.Fired}, true
		}
		return outcome{}, false
	}
	return outcome{}, false
}

// evaluateBoolean fires only on the false -> true transition, per spec
// §4.4.
func (t *Trigger) evaluateBoolean(instance string, sample int64, first bool) (outcome, bool) {
	result := t.Boolean.Operator.evaluate(sample, t.Boolean.Value)

	prev, had := t.state.booleanState[instance]
	if !had {
		prev = false
		if first && t.Boolean.Startup {
			prev = false // implicit pre-first-sample state is false, per spec
		}
	}
	t.state.booleanState[instance] = result

	if !prev && result {
		return outcome{instance: instance, eventRef: t.Events.Fired, sample: sample}, true
	}
	return outcome{}, false
}

// evaluateThreshold maintains the below-falling/between/above-rising
// hysteresis state machine, per spec §4.4 and §8 scenario 6.
func (t *Trigger) evaluateThreshold(instance string, sample int64, first bool) (outcome, bool) {
	state, had := t.state.thresholdState[instance]
	if !had {
		state = Between
		if first {
			switch t.Threshold.Startup {
			case StartupRising:
				if sample >= t.Threshold.Rising {
					state = AboveRising
				}
			case StartupFalling:
				if sample <= t.Threshold.Falling {
					state = BelowFalling
				}
			case StartupEither:
				switch {
				case sample >= t.Threshold.Rising:
					state = AboveRising
				case sample <= t.Threshold.Falling:
					state = BelowFalling
				}
			}
		}
	}

	next := state
	var o outcome
	fire := false

	switch state {
	case Between, BelowFalling:
		if sample >= t.Threshold.Rising {
			next = AboveRising
			if state != AboveRising {
				o = outcome{instance: instance, eventRef: t.Events.Rising, sample: sample}
				fire = true
			}
		} else if sample <= t.Threshold.Falling {
			next = BelowFalling
		}
	case AboveRising:
		if sample <= t.Threshold.Falling {
			next = BelowFalling
			o = outcome{instance: instance, eventRef: t.Events.Falling, sample: sample}
			fire = true
		}
	}

	t.state.thresholdState[instance] = next
	if had && !fire {
		return outcome{}, false
	}
	if !had && !first {
		// a never-seen instance on a non-first tick goes through the same
		// transition logic as any other; nothing extra is done here.
		_ = o
	}
	return o, fire
}
