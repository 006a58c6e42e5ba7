package mib

import (
	"time"

	"github.com/duniansampa/priot/ber"
)

// SysOREntry is one row of sysORTable: an advertised agent capability, per
// spec §4.5.
type SysOREntry struct {
	OID          ber.OID
	Descr        string
	Session      string
	RegisteredAt time.Time
}

// SysORTable is the flat list of advertised capabilities, maintained
// through its Add, Remove and RemoveSession methods.
type SysORTable struct {
	entries []SysOREntry
}

// Add appends a new capability entry.
func (t *SysORTable) Add(oid ber.OID, descr, session string, now time.Time) {
	t.entries = append(t.entries, SysOREntry{OID: oid, Descr: descr, Session: session, RegisteredAt: now})
}

// Remove deletes every entry matching oid and session.
func (t *SysORTable) Remove(oid ber.OID, session string) {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.OID.Equal(oid) && e.Session == session {
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
}

// RemoveSession deletes every entry owned by session.
func (t *SysORTable) RemoveSession(session string) {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.Session == session {
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
}

// Entries returns a snapshot of the current table.
func (t *SysORTable) Entries() []SysOREntry {
	out := make([]SysOREntry, len(t.entries))
	copy(out, t.entries)
	return out
}
