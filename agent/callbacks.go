package agent

// CallbackMajor groups related lifecycle points, per spec §4.5's two-level
// (major, minor) callback registry.
type CallbackMajor int

const (
	CallbackLibrary CallbackMajor = iota
	CallbackApplication
)

// CallbackMinor selects one lifecycle point within a major group.
type CallbackMinor int

const (
	CallbackRegisterOID CallbackMinor = iota
	CallbackUnregisterOID
	CallbackSysOREntryAdded
	CallbackSysOREntryRemoved
	CallbackConfigLoaded
	CallbackIndexMilestone
	CallbackTrapSent
)

// Callback is invoked at a registered lifecycle point. cookie is the
// caller-supplied value passed to Register; args carries the point-specific
// payload (an OID, a session id, an error, and so on) as the concrete hook
// signatures in snmp.LifecycleHooks describe.
type Callback func(cookie interface{}, args ...interface{}) error

type callbackEntry struct {
	id     int
	fn     Callback
	cookie interface{}
}

// CallbackRegistry is the two-level table of named-lifecycle-point
// function pointers spec §4.5 describes, invoked synchronously and in
// registration order. Each Register call adds a new entry with a fresh id.
// Removal is idempotent: removing an id twice, or one never registered, is
// a no-op.
type CallbackRegistry struct {
	entries map[CallbackMajor]map[CallbackMinor][]callbackEntry
	nextID  int
}

// NewCallbackRegistry returns an empty registry.
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{entries: make(map[CallbackMajor]map[CallbackMinor][]callbackEntry)}
}

// Register adds fn at (major, minor), returning an id Unregister accepts.
func (r *CallbackRegistry) Register(major CallbackMajor, minor CallbackMinor, fn Callback, cookie interface{}) int {
	r.nextID++
	id := r.nextID
	byMinor, ok := r.entries[major]
	if !ok {
		byMinor = make(map[CallbackMinor][]callbackEntry)
		r.entries[major] = byMinor
	}
	byMinor[minor] = append(byMinor[minor], callbackEntry{id: id, fn: fn, cookie: cookie})
	return id
}

// Unregister removes the callback named by id, if still present.
func (r *CallbackRegistry) Unregister(major CallbackMajor, minor CallbackMinor, id int) {
	byMinor, ok := r.entries[major]
	if !ok {
		return
	}
	list := byMinor[minor]
	for i, e := range list {
		if e.id == id {
			byMinor[minor] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Invoke calls every callback registered at (major, minor) in registration
// order, stopping at (and returning) the first error.
func (r *CallbackRegistry) Invoke(major CallbackMajor, minor CallbackMinor, args ...interface{}) error {
	for _, e := range r.entries[major][minor] {
		if err := e.fn(e.cookie, args...); err != nil {
			return err
		}
	}
	return nil
}
