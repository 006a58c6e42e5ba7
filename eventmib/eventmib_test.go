package eventmib_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/eventmib"
	"github.com/duniansampa/priot/snmp"
)

// fakeQuery is a fixed table of OID->int64 values, addressable by exact
// match (Get) or lexical successor within the table (GetNext), with Set
// recording the last value written.
type fakeQuery struct {
	values map[string]int64
	sets   []setCall
}

type setCall struct {
	oid   ber.OID
	value *snmp.TypedValue
}

func newFakeQuery() *fakeQuery {
	return &fakeQuery{values: make(map[string]int64)}
}

func (f *fakeQuery) set(oid ber.OID, v int64) { f.values[oid.String()] = v }

func (f *fakeQuery) Get(_ string, oid ber.OID) (*snmp.TypedValue, error) {
	v, ok := f.values[oid.String()]
	if !ok {
		return nil, errNotFound
	}
	return &snmp.TypedValue{Type: snmp.Integer, Value: v}, nil
}

func (f *fakeQuery) GetNext(_ string, oid ber.OID) (ber.OID, *snmp.TypedValue, bool, error) {
	var bestKey string
	var best ber.OID
	found := false
	for k := range f.values {
		cand := ber.ParseOIDString(k)
		if cand.Compare(oid) <= 0 {
			continue
		}
		if !found || cand.Compare(best) < 0 {
			best, bestKey, found = cand, k, true
		}
	}
	if !found {
		return nil, nil, false, nil
	}
	return best, &snmp.TypedValue{Type: snmp.Integer, Value: f.values[bestKey]}, true, nil
}

func (f *fakeQuery) Set(_ string, oid ber.OID, value *snmp.TypedValue) error {
	f.sets = append(f.sets, setCall{oid: oid, value: value})
	return nil
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (e *notFoundError) Error() string { return "no such object" }

func newEngine(q eventmib.QueryInterface) *eventmib.Engine {
	e := eventmib.NewEngine(q)
	e.Hooks = snmp.NoOpHooks
	return e
}

func TestBooleanTriggerFiresOnlyOnFalseToTrueTransition(t *testing.T) {
	q := newFakeQuery()
	q.set(ber.OID{1, 3, 6, 1, 4, 1, 1}, 0)

	e := newEngine(q)
	var fired [][]snmp.Varbind
	e.TrapSink = func(vbs []snmp.Varbind) error {
		fired = append(fired, vbs)
		return nil
	}
	e.AddEvent(&eventmib.Event{Owner: "o", Name: "notif", ActionNotification: true, NotificationOID: ber.OID{1, 3, 6, 1, 4, 1, 99}})

	trig := &eventmib.Trigger{
		Owner: "o", Name: "t1", OID: ber.OID{1, 3, 6, 1, 4, 1, 1}, Frequency: time.Second,
		Tests:   eventmib.TestBoolean,
		Boolean: eventmib.BooleanConfig{Operator: eventmib.BoolGreaterOrEqual, Value: 1},
		Events:  eventmib.EventRefs{Fired: "o\x00notif"},
		Enabled: true, Active: true,
	}
	now := time.Unix(0, 0)
	e.AddTrigger(trig, now)

	e.Tick(now.Add(time.Second))
	require.Empty(t, fired, "sample below threshold must not fire")

	q.set(ber.OID{1, 3, 6, 1, 4, 1, 1}, 5)
	e.Tick(now.Add(2 * time.Second))
	require.Len(t, fired, 1, "false->true transition must fire exactly once")

	e.Tick(now.Add(3 * time.Second))
	require.Len(t, fired, 1, "holding true must not refire")

	q.set(ber.OID{1, 3, 6, 1, 4, 1, 1}, 0)
	e.Tick(now.Add(4 * time.Second))
	q.set(ber.OID{1, 3, 6, 1, 4, 1, 1}, 7)
	e.Tick(now.Add(5 * time.Second))
	require.Len(t, fired, 2, "a fresh false->true transition fires again")
}

func TestThresholdHysteresisRisingThenFalling(t *testing.T) {
	// Mirrors scenario 6's hysteresis walk: rising fires once crossing up,
	// falling fires once crossing down, and dwelling inside the band fires
	// neither.
	oid := ber.OID{1, 3, 6, 1, 4, 1, 2}
	q := newFakeQuery()
	q.set(oid, 10)

	e := newEngine(q)
	var risingCount, fallingCount int
	e.AddEvent(&eventmib.Event{Owner: "o", Name: "rising", ActionNotification: true, NotificationOID: ber.OID{1, 3, 6, 1, 4, 1, 100}})
	e.AddEvent(&eventmib.Event{Owner: "o", Name: "falling", ActionNotification: true, NotificationOID: ber.OID{1, 3, 6, 1, 4, 1, 101}})

	trig := &eventmib.Trigger{
		Owner: "o", Name: "t2", OID: oid, Frequency: time.Second,
		Tests:     eventmib.TestThreshold,
		Threshold: eventmib.ThresholdConfig{Rising: 90, Falling: 10},
		Events:    eventmib.EventRefs{Rising: "o\x00rising", Falling: "o\x00falling"},
		Enabled:   true, Active: true,
	}

	// Count fires via a wrapping sink keyed by which notification OID was sent.
	e.TrapSink = func(vbs []snmp.Varbind) error {
		for _, vb := range vbs {
			if vb.TypedValue.Type != snmp.OID {
				continue
			}
			switch vb.TypedValue.OID().String() {
			case "1.3.6.1.4.1.100":
				risingCount++
			case "1.3.6.1.4.1.101":
				fallingCount++
			}
		}
		return nil
	}

	now := time.Unix(0, 0)
	e.AddTrigger(trig, now)

	samples := []int64{10, 50, 95, 5, 50, 96}
	for i, s := range samples {
		q.set(oid, s)
		e.Tick(now.Add(time.Duration(i+1) * time.Second))
	}

	require.Equal(t, 2, risingCount, "rising must fire on each below/between -> above-rising crossing")
	require.Equal(t, 1, fallingCount, "falling must fire on the single above-rising -> below-falling crossing")
}

func TestDeltaSamplingSkipsOnDiscontinuityReset(t *testing.T) {
	oid := ber.OID{1, 3, 6, 1, 4, 1, 3}
	sysUpTime := ber.OID{1, 3, 6, 1, 2, 1, 1, 3, 0}

	q := newFakeQuery()
	q.set(oid, 100)
	q.set(sysUpTime, 1000)

	e := newEngine(q)
	var fireCount int
	e.TrapSink = func(vbs []snmp.Varbind) error {
		fireCount++
		return nil
	}
	e.AddEvent(&eventmib.Event{
		Owner: "o", Name: "delta", ActionNotification: true,
		NotificationOID: ber.OID{1, 3, 6, 1, 4, 1, 102},
	})

	trig := &eventmib.Trigger{
		Owner: "o", Name: "t3", OID: oid, Frequency: time.Second,
		Delta:   true,
		Tests:   eventmib.TestBoolean,
		Boolean: eventmib.BooleanConfig{Operator: eventmib.BoolGreaterOrEqual, Value: 1},
		Events:  eventmib.EventRefs{Fired: "o\x00delta"},
		Enabled: true, Active: true,
	}
	now := time.Unix(0, 0)
	e.AddTrigger(trig, now)

	e.Tick(now.Add(time.Second)) // first sample, no prior to delta against

	q.set(oid, 150)
	q.set(sysUpTime, 1100)
	e.Tick(now.Add(2 * time.Second)) // delta = 50, fires

	q.set(oid, 10)
	q.set(sysUpTime, 50) // sysUpTime went backwards: a reboot
	e.Tick(now.Add(3 * time.Second))

	require.Equal(t, 1, fireCount, "only the tick with a valid non-reset delta should fire")
}

func TestInternalEventsArePreregistered(t *testing.T) {
	trig := &eventmib.Trigger{
		Owner: "o", Name: "t4", OID: ber.OID{1, 3, 6, 1, 4, 1, 4}, Frequency: time.Second,
		Tests:     eventmib.TestExistence,
		Existence: eventmib.ExistenceConfig{Bits: eventmib.ExistencePresent, Startup: true},
		Events:    eventmib.EventRefs{Fired: eventmib.EventTriggerFired},
		Enabled:   true, Active: true,
	}
	q := newFakeQuery()
	q.set(trig.OID, 1)
	e := newEngine(q)
	var sunk []snmp.Varbind
	e.TrapSink = func(vbs []snmp.Varbind) error {
		sunk = vbs
		return nil
	}
	now := time.Unix(0, 0)
	e.AddTrigger(trig, now)
	e.Tick(now.Add(time.Second))

	require.NotEmpty(t, sunk, "firing against the internal _mteTriggerFired event must not error")
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	q := newFakeQuery()
	q.set(ber.OID{1, 3, 6, 1, 4, 1, 5}, 1)

	e := newEngine(q)
	e.AddEvent(&eventmib.Event{Owner: "o", Name: "notif", ActionNotification: true, NotificationOID: ber.OID{1, 3, 6, 1, 4, 1, 103}})
	trig := &eventmib.Trigger{
		Owner: "o", Name: "persisted", OID: ber.OID{1, 3, 6, 1, 4, 1, 5}, Frequency: 5 * time.Second,
		Tests:   eventmib.TestBoolean,
		Boolean: eventmib.BooleanConfig{Operator: eventmib.BoolGreaterOrEqual, Value: 1},
		Events:  eventmib.EventRefs{Fired: "o\x00notif"},
		Enabled: true, Active: true,
	}
	now := time.Unix(0, 0)
	e.AddTrigger(trig, now)

	triggers, events := e.Persist()
	require.Len(t, triggers, 1, "fixed internal triggers must not be persisted")
	require.Len(t, events, 1, "fixed internal events must not be persisted")

	restored := newEngine(q)
	var fired int
	restored.TrapSink = func(vbs []snmp.Varbind) error { fired++; return nil }
	restored.Restore(triggers, events, now)
	restored.Tick(now.Add(6 * time.Second))
	require.Equal(t, 1, fired, "a restored trigger must resume sampling and firing")
}
