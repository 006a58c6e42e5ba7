package eventmib

import (
	"github.com/pkg/errors"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/snmp"
)

// QueryInterface is the in-process query seam spec §4.4 describes: the
// engine never opens a socket or waits on a delegated AgentX reply itself,
// it asks the local agent's own registry for a value synchronously within
// the tick. Package agent supplies the concrete implementation backed by
// mib.Dispatcher; tests supply a fake.
type QueryInterface interface {
	// Get resolves the exact OID, per spec §4.2 GET semantics.
	Get(context string, oid ber.OID) (*snmp.TypedValue, error)

	// GetNext resolves the lexically-next OID strictly after oid, returning
	// the resolved OID and value, or found=false if nothing follows.
	GetNext(context string, oid ber.OID) (next ber.OID, value *snmp.TypedValue, found bool, err error)

	// Set issues a SET of value at oid.
	Set(context string, oid ber.OID, value *snmp.TypedValue) error
}

// sampleInt reads an integer-bearing value at oid and returns it as int64;
// non-integer types (including the SNMP exception markers) are reported as
// an error, which callers treat as a failed sample (spec §4.4's Failure
// event).
func sampleInt(q QueryInterface, context string, oid ber.OID) (int64, error) {
	tv, err := q.Get(context, oid)
	if err != nil {
		return 0, err
	}
	switch tv.Type {
	case snmp.Integer, snmp.Counter32, snmp.Gauge32, snmp.Time, snmp.Counter64, snmp.OpaqueUint64, snmp.OpaqueInt64:
		return int64(tv.Int()), nil
	}
	return 0, errors.Errorf("non-integer value type %v at %s", tv.Type, oid)
}

// walkPrefix issues successive GetNext calls bounded by prefix, returning
// every (instance-suffix, value) pair found, per spec §4.4 "Wildcarded
// triggers issue a GETNEXT-walk bounded by the prefix".
func walkPrefix(q QueryInterface, context string, prefix ber.OID) (map[string]int64, error) {
	out := make(map[string]int64)
	cursor := prefix.Clone()
	for {
		next, tv, found, err := q.GetNext(context, cursor)
		if err != nil {
			return nil, err
		}
		if !found || !next.HasPrefix(prefix) {
			return out, nil
		}
		out[suffixOf(prefix, next)] = int64(tv.Int())
		cursor = next
	}
}

// suffixOf returns the subidentifiers of oid beyond prefix, as a dotted
// string key for the per-instance runtime state maps.
func suffixOf(prefix, oid ber.OID) string {
	return ber.OID(oid[len(prefix):]).String()
}
