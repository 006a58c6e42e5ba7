package snmp

import (
	"log"

	"github.com/duniansampa/priot/ber"
)

// LifecycleHooks defines the struct-of-closures lifecycle callback points
// shared by the agent, agentx and eventmib packages, generalizing the
// teacher's SessionTrace/ServerHooks shape (trace.go, serverhooks.go) from a
// single client/server session to the whole agent's dispatch loop, per
// spec §4.5's callback registry.
type LifecycleHooks struct {
	// RegisterOID/UnregisterOID are called when a subtree registration is
	// added to or removed from the mib registry.
	RegisterOID   func(context string, name ber.OID, priority int)
	UnregisterOID func(context string, name ber.OID, priority int)

	// SysOREntryAdded/SysOREntryRemoved are called when the sysORTable
	// gains or loses an entry.
	SysOREntryAdded   func(name ber.OID, descr string)
	SysOREntryRemoved func(name ber.OID)

	// ConfigLoaded is called once the process configuration has been
	// read and applied.
	ConfigLoaded func(path string, err error)

	// IndexMilestone is called whenever the AgentX index pool exhausts
	// or replenishes past a caller-defined watermark.
	IndexMilestone func(oid ber.OID, allocated, capacity int)

	// TrapSent is called after an attempt to send a notification,
	// successful or not.
	TrapSent func(oid ber.OID, destination string, err error)

	// Error is called after an error condition has been detected anywhere
	// in the dispatch loop that does not already have a more specific hook.
	Error func(location string, err error)
}

// DefaultHooks logs only errors, mirroring the teacher's DefaultLoggingHooks/
// DefaultServerHooks restraint.
var DefaultHooks = &LifecycleHooks{
	Error: func(location string, err error) {
		log.Printf("priot-error location:%s err:%v\n", location, err)
	},
}

// DiagnosticHooks logs every lifecycle point, mirroring the teacher's
// DiagnosticLoggingHooks/DiagnosticServerHooks.
var DiagnosticHooks = &LifecycleHooks{
	RegisterOID: func(context string, name ber.OID, priority int) {
		log.Printf("priot-register context:%q oid:%s priority:%d\n", context, name, priority)
	},
	UnregisterOID: func(context string, name ber.OID, priority int) {
		log.Printf("priot-unregister context:%q oid:%s priority:%d\n", context, name, priority)
	},
	SysOREntryAdded: func(name ber.OID, descr string) {
		log.Printf("priot-sysor-add oid:%s descr:%q\n", name, descr)
	},
	SysOREntryRemoved: func(name ber.OID) {
		log.Printf("priot-sysor-remove oid:%s\n", name)
	},
	ConfigLoaded: func(path string, err error) {
		log.Printf("priot-config-loaded path:%s err:%v\n", path, err)
	},
	IndexMilestone: func(oid ber.OID, allocated, capacity int) {
		log.Printf("priot-index-milestone oid:%s allocated:%d capacity:%d\n", oid, allocated, capacity)
	},
	TrapSent: func(oid ber.OID, destination string, err error) {
		log.Printf("priot-trap-sent oid:%s destination:%s err:%v\n", oid, destination, err)
	},
	Error: DefaultHooks.Error,
}

// NoOpHooks does nothing, for callers (mainly tests) that want to construct
// an agent without any logging side effect.
var NoOpHooks = &LifecycleHooks{
	RegisterOID:       func(context string, name ber.OID, priority int) {},
	UnregisterOID:     func(context string, name ber.OID, priority int) {},
	SysOREntryAdded:   func(name ber.OID, descr string) {},
	SysOREntryRemoved: func(name ber.OID) {},
	ConfigLoaded:      func(path string, err error) {},
	IndexMilestone:    func(oid ber.OID, allocated, capacity int) {},
	TrapSent:          func(oid ber.OID, destination string, err error) {},
	Error:             func(location string, err error) {},
}
