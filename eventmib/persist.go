package eventmib

import (
	"time"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/snmp"
)

// PersistedTrigger is the serializable subset of a Trigger's configuration
// (not runtime state), per spec §4.4 "Persistence": every row with
// Fixed=false survives a restart.
type PersistedTrigger struct {
	Owner, Name      string
	OID              ber.OID
	Wildcarded       bool
	Frequency        time.Duration
	Tests            TestBit
	Delta            bool
	DiscontinuityOID ber.OID
	Existence        ExistenceConfig
	Boolean          BooleanConfig
	Threshold        ThresholdConfig
	Events           EventRefs
	Enabled          bool
	Active           bool
}

// PersistedEvent is the serializable subset of an Event.
type PersistedEvent struct {
	Owner, Name        string
	ActionNotification bool
	ActionSet          bool
	NotificationOID    ber.OID
	ObjectList         []ber.OID
	SetOID             ber.OID
	SetValue           *snmp.TypedValue
	SetContext         string
	ObjWild            bool
}

// Persist snapshots every non-fixed trigger and event, for a caller to
// serialize to disk (the config-file format itself is outside this
// package's concerns, per spec §1's exclusion of config parsing).
func (e *Engine) Persist() ([]PersistedTrigger, []PersistedEvent) {
	var triggers []PersistedTrigger
	for _, t := range e.triggers {
		if t.Fixed {
			continue
		}
		triggers = append(triggers, PersistedTrigger{
			Owner: t.Owner, Name: t.Name,
			OID: t.OID, Wildcarded: t.Wildcarded, Frequency: t.Frequency,
			Tests: t.Tests, Delta: t.Delta, DiscontinuityOID: t.DiscontinuityOID,
			Existence: t.Existence, Boolean: t.Boolean, Threshold: t.Threshold,
			Events: t.Events, Enabled: t.Enabled, Active: t.Active,
		})
	}

	var events []PersistedEvent
	for _, ev := range e.events {
		if ev.Fixed {
			continue
		}
		events = append(events, PersistedEvent{
			Owner: ev.Owner, Name: ev.Name,
			ActionNotification: ev.ActionNotification, ActionSet: ev.ActionSet,
			NotificationOID: ev.NotificationOID, ObjectList: ev.ObjectList,
			SetOID: ev.SetOID, SetValue: ev.SetValue, SetContext: ev.SetContext, ObjWild: ev.ObjWild,
		})
	}
	return triggers, events
}

// Restore replays a prior Persist snapshot, re-arming every enabled+active
// trigger relative to now. Events are restored first since triggers
// reference them by name.
func (e *Engine) Restore(triggers []PersistedTrigger, events []PersistedEvent, now time.Time) {
	for _, pe := range events {
		e.AddEvent(&Event{
			Owner: pe.Owner, Name: pe.Name,
			ActionNotification: pe.ActionNotification, ActionSet: pe.ActionSet,
			NotificationOID: pe.NotificationOID, ObjectList: pe.ObjectList,
			SetOID: pe.SetOID, SetValue: pe.SetValue, SetContext: pe.SetContext, ObjWild: pe.ObjWild,
		})
	}
	for _, pt := range triggers {
		e.AddTrigger(&Trigger{
			Owner: pt.Owner, Name: pt.Name,
			OID: pt.OID, Wildcarded: pt.Wildcarded, Frequency: pt.Frequency,
			Tests: pt.Tests, Delta: pt.Delta, DiscontinuityOID: pt.DiscontinuityOID,
			Existence: pt.Existence, Boolean: pt.Boolean, Threshold: pt.Threshold,
			Events: pt.Events, Enabled: pt.Enabled, Active: pt.Active,
		}, now)
	}
}
