package eventmib

import (
	"container/heap"
	"encoding/asn1"
	"time"

	"github.com/pkg/errors"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/snmp"
)

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	strictOrdering bool
}

var defaultEngineOptions = engineOptions{strictOrdering: false}

// WithStrictOrdering places event payload objects after trigger payload
// objects in a fired notification, per the RFC-literal ordering spec §9
// leaves available but non-default. The default (false) places event
// objects first, per spec's stated recommendation.
func WithStrictOrdering(strict bool) Option {
	return func(o *engineOptions) { o.strictOrdering = strict }
}

// Engine is the Disman Event-MIB trigger/event engine, per spec §4.4.
type Engine struct {
	Query   QueryInterface
	Hooks   *snmp.LifecycleHooks
	Context string

	// TrapSink submits a built notification varbind list to the trap
	// path; package agent populates it. A Set action goes through
	// Query.Set instead.
	TrapSink func(vbs []snmp.Varbind) error

	triggers map[string]*Trigger
	events   map[string]*Event

	sched triggerHeap

	opts engineOptions
}

// NewEngine returns an Engine with the built-in internal events
// pre-registered, per spec §4.4 "Internal events".
func NewEngine(q QueryInterface, opts ...Option) *Engine {
	o := defaultEngineOptions
	for _, apply := range opts {
		apply(&o)
	}
	e := &Engine{
		Query:    q,
		Hooks:    snmp.NoOpHooks,
		triggers: make(map[string]*Trigger),
		events:   make(map[string]*Event),
		opts:     o,
	}
	for _, ev := range internalEvents() {
		e.events[ev.key()] = ev
	}
	return e
}

// AddTrigger registers t, initializing its runtime state and scheduling its
// first tick deadline relative to now.
func (e *Engine) AddTrigger(t *Trigger, now time.Time) {
	t.state = newTriggerState()
	e.triggers[t.key()] = t
	if t.Enabled && t.Active {
		heap.Push(&e.sched, &scheduledTrigger{trigger: t, deadline: now.Add(t.Frequency)})
	}
}

// RemoveTrigger unregisters the trigger named by owner/name; a pending
// scheduler entry for it becomes a no-op the next time it is popped.
func (e *Engine) RemoveTrigger(owner, name string) {
	delete(e.triggers, owner+"\x00"+name)
}

// NextDeadline returns the earliest scheduled trigger deadline, for a
// caller driving its own poll loop around Tick, per spec §5's single
// dispatch-loop model.
func (e *Engine) NextDeadline() (time.Time, bool) {
	if e.sched.Len() == 0 {
		return time.Time{}, false
	}
	return e.sched[0].deadline, true
}

// AddEvent registers ev.
func (e *Engine) AddEvent(ev *Event) { e.events[ev.key()] = ev }

// RemoveEvent unregisters the event named by owner/name.
func (e *Engine) RemoveEvent(owner, name string) {
	delete(e.events, owner+"\x00"+name)
}

// Tick pops and re-schedules every trigger due at or before now, per spec
// §4.4's cooperative scheduling and §5's single dispatch-loop model.
func (e *Engine) Tick(now time.Time) {
	for e.sched.Len() > 0 && !e.sched[0].deadline.After(now) {
		sched := heap.Pop(&e.sched).(*scheduledTrigger)
		t := sched.trigger

		if live, ok := e.triggers[t.key()]; !ok || live != t || !t.Enabled || !t.Active {
			continue // removed or disabled since it was scheduled
		}

		outcomes, err := e.sampleAndEvaluate(t)
		if err != nil {
			e.Hooks.Error("eventmib.sample", err)
		}
		for _, o := range outcomes {
			if o.eventRef == "" {
				continue
			}
			if err := e.fireEvent(t, o); err != nil {
				e.Hooks.Error("eventmib.fire", err)
			}
		}

		heap.Push(&e.sched, &scheduledTrigger{trigger: t, deadline: now.Add(t.Frequency)})
	}
}

// fireEvent resolves the event eventRef refers to, either as a full
// owner+"\x00"+name key or as a name under t.Owner, and executes its
// configured actions, per spec §4.4 "Event firing".
func (e *Engine) fireEvent(t *Trigger, o outcome) error {
	ev, ok := e.events[o.eventRef]
	if !ok {
		ev, ok = e.events[t.Owner+"\x00"+o.eventRef]
	}
	if !ok {
		ev, ok = e.events["\x00"+o.eventRef] // internal events have no owner
	}
	if !ok {
		return errors.Errorf("unknown event reference %q", o.eventRef)
	}

	var firstErr error
	if ev.ActionNotification {
		if err := e.fireNotification(t, ev, o); err != nil {
			firstErr = errors.Wrap(err, "notification action")
		}
	}
	if ev.ActionSet {
		if err := e.fireSet(t, ev, o); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "set action")
		}
	}
	return firstErr
}

func (e *Engine) fireNotification(t *Trigger, ev *Event, o outcome) error {
	if e.TrapSink == nil {
		return errors.New("no trap sink configured")
	}

	trapVb := snmp.Varbind{OID: asn1OID(snmpTrapOID), TypedValue: &snmp.TypedValue{Type: snmp.OID, Value: asn1OID(ev.NotificationOID)}}

	triggerObjects, err := e.resolveObjects(t.OID, o.instance, t.Wildcarded)
	if err != nil {
		return err
	}

	eventPayload, err := e.resolveObjectList(ev.ObjectList, o.instance, t.Wildcarded)
	if err != nil {
		return err
	}

	vbs := make([]snmp.Varbind, 0, 1+len(triggerObjects)+len(eventPayload))
	vbs = append(vbs, trapVb)
	if e.opts.strictOrdering {
		vbs = append(vbs, triggerObjects...)
		vbs = append(vbs, eventPayload...)
	} else {
		vbs = append(vbs, eventPayload...)
		vbs = append(vbs, triggerObjects...)
	}

	if e.Hooks != nil && e.Hooks.TrapSent != nil {
		defer func() { e.Hooks.TrapSent(ev.NotificationOID, "", nil) }()
	}
	return e.TrapSink(vbs)
}

// resolveObjects fetches the single monitored-OID value for the fired
// instance, as the trigger's own payload-object contribution.
func (e *Engine) resolveObjects(base ber.OID, instance string, wildcarded bool) ([]snmp.Varbind, error) {
	if len(base) == 0 {
		return nil, nil
	}
	oid := base
	if wildcarded && instance != "" {
		oid = append(base.Clone(), parseSuffix(instance)...)
	}
	tv, err := e.Query.Get(e.Context, oid)
	if err != nil {
		return nil, err
	}
	return []snmp.Varbind{{OID: asn1OID(oid), TypedValue: tv}}, nil
}

func (e *Engine) resolveObjectList(objects []ber.OID, instance string, wildcarded bool) ([]snmp.Varbind, error) {
	out := make([]snmp.Varbind, 0, len(objects))
	for _, base := range objects {
		vbs, err := e.resolveObjects(base, instance, wildcarded)
		if err != nil {
			return nil, err
		}
		out = append(out, vbs...)
	}
	return out, nil
}

func (e *Engine) fireSet(t *Trigger, ev *Event, o outcome) error {
	oid := ev.SetOID
	if ev.ObjWild && o.instance != "" {
		oid = append(ev.SetOID.Clone(), parseSuffix(o.instance)...)
	}
	return e.Query.Set(ev.SetContext, oid, ev.SetValue)
}

// asn1OID converts a ber.OID into the asn1.ObjectIdentifier shape package
// snmp's Varbind carries, so the engine can hand a built payload to
// Engine.TrapSink without package ber depending on encoding/asn1.
func asn1OID(oid ber.OID) asn1.ObjectIdentifier {
	out := make(asn1.ObjectIdentifier, len(oid))
	for i, v := range oid {
		out[i] = int(v)
	}
	return out
}

// snmpTrapOID is the standard snmpTrapOID.0 varbind OID, per spec §4.3/§4.4.
var snmpTrapOID = ber.OID{1, 3, 6, 1, 6, 3, 1, 1, 4, 1, 0}
