package agent

import (
	"github.com/pkg/errors"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/mib"
	"github.com/duniansampa/priot/snmp"
)

// registryQuery bridges the Event-MIB engine's QueryInterface seam
// (eventmib.QueryInterface) to the agent's own mib.Dispatcher, so a
// trigger's sample and an event's SET action both run through the exact
// same registry the AgentX/SNMP request path uses, per spec §4.4's
// "in-process query interface".
type registryQuery struct {
	dispatch *mib.Dispatcher
}

func (q *registryQuery) Get(context string, oid ber.OID) (*snmp.TypedValue, error) {
	req := &mib.Request{Context: context, OID: oid, Command: mib.CmdGet}
	verdict, err := q.dispatch.DispatchOne(req)
	if err != nil {
		return nil, err
	}
	if verdict == mib.VerdictDelegated {
		return nil, errors.New("query interface does not support delegated GET")
	}
	if req.Value == nil {
		return nil, errors.New("handler produced no value")
	}
	return req.Value, nil
}

func (q *registryQuery) GetNext(context string, oid ber.OID) (ber.OID, *snmp.TypedValue, bool, error) {
	req := &mib.Request{Context: context, OID: oid, Command: mib.CmdGetNext}
	verdict, err := q.dispatch.DispatchOne(req)
	if err != nil {
		var unk *mib.UnknownRegistration
		if errors.As(err, &unk) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	if verdict == mib.VerdictDelegated {
		return nil, nil, false, errors.New("query interface does not support delegated GETNEXT")
	}
	if req.Value == nil || req.ResultOID == nil {
		return nil, nil, false, nil
	}
	return req.ResultOID, req.Value, true, nil
}

func (q *registryQuery) Set(context string, oid ber.OID, value *snmp.TypedValue) error {
	req := &mib.Request{Context: context, OID: oid, Command: mib.CmdSet, SetValue: value}
	verdict, err := q.dispatch.DispatchOne(req)
	if err != nil {
		return err
	}
	if verdict == mib.VerdictDelegated {
		return errors.New("query interface does not support delegated SET")
	}
	return nil
}
