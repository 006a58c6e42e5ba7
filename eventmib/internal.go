package eventmib

import "github.com/duniansampa/priot/ber"

// Internal event names, per spec §4.4 "Internal events": hardcoded,
// never persisted, with fixed snmpTrapOID values rather than looked up via
// the object table.
const (
	EventTriggerFired   = "_mteTriggerFired"
	EventTriggerRising  = "_mteTriggerRising"
	EventTriggerFalling = "_mteTriggerFalling"
	EventTriggerFailure = "_mteTriggerFailure"
	EventLinkUp         = "linkUp"
	EventLinkDown       = "linkDown"
)

// mteEventsOID is the root under which the mib-2 event-MIB's own
// notification OIDs live.
var mteEventsOID = ber.OID{1, 3, 6, 1, 2, 1, 88, 2}

// linkTrapsOID is the root of the standard linkUp/linkDown notifications
// (RFC 2863), predating and independent of the Event-MIB's own OID space.
var linkTrapsOID = ber.OID{1, 3, 6, 1, 6, 3, 1, 1, 5}

func internalEvents() []*Event {
	mk := func(name string, oid ber.OID) *Event {
		return &Event{
			Name:               name,
			ActionNotification: true,
			NotificationOID:    oid,
			Fixed:              true,
		}
	}
	return []*Event{
		mk(EventTriggerFired, append(mteEventsOID.Clone(), 0, 1)),
		mk(EventTriggerRising, append(mteEventsOID.Clone(), 0, 2)),
		mk(EventTriggerFalling, append(mteEventsOID.Clone(), 0, 3)),
		mk(EventTriggerFailure, append(mteEventsOID.Clone(), 0, 4)),
		mk(EventLinkUp, append(linkTrapsOID.Clone(), 4)),
		mk(EventLinkDown, append(linkTrapsOID.Clone(), 3)),
	}
}
