// Package eventmib implements the Disman Event-MIB trigger/event engine of
// spec §4.4: a named trigger table samples OIDs on a schedule, evaluates
// existence/boolean/threshold predicates, and fires named events that
// either build a notification payload or issue a remote SET, both through
// the in-process query interface rather than a real network round-trip.
package eventmib

import (
	"time"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/snmp"
)

// TestBit selects which predicates a Trigger evaluates on each sample, per
// spec §4.4.
type TestBit int

const (
	TestExistence TestBit = 1 << iota
	TestBoolean
	TestThreshold
)

// ExistenceTransition is the transition an existence test fires on.
type ExistenceTransition int

const (
	ExistencePresent ExistenceTransition = 1 << iota
	ExistenceAbsent
	ExistenceChanged
)

// BooleanOperator is the comparison a boolean test applies to a sample.
type BooleanOperator int

const (
	BoolNotEqual BooleanOperator = iota
	BoolEqual
	BoolLess
	BoolLessOrEqual
	BoolGreater
	BoolGreaterOrEqual
)

func (op BooleanOperator) evaluate(sample, value int64) bool {
	switch op {
	case BoolNotEqual:
		return sample != value
	case BoolEqual:
		return sample == value
	case BoolLess:
		return sample < value
	case BoolLessOrEqual:
		return sample <= value
	case BoolGreater:
		return sample > value
	case BoolGreaterOrEqual:
		return sample >= value
	}
	return false
}

// ThresholdState is the 3-valued hysteresis state a threshold test
// maintains per sampled instance, per spec §4.4.
type ThresholdState int

const (
	BelowFalling ThresholdState = iota
	Between
	AboveRising
)

// ThresholdStartup selects which edge, if any, fires on a threshold test's
// first sample.
type ThresholdStartup int

const (
	StartupNone ThresholdStartup = iota
	StartupRising
	StartupFalling
	StartupEither
)

// ExistenceConfig groups the existence-test configuration.
type ExistenceConfig struct {
	Bits    ExistenceTransition
	Startup bool
}

// BooleanConfig groups the boolean-test configuration.
type BooleanConfig struct {
	Operator BooleanOperator
	Value    int64
	Startup  bool
}

// ThresholdConfig groups the threshold-test configuration.
type ThresholdConfig struct {
	Rising       int64
	Falling      int64
	DeltaRising  int64
	DeltaFalling int64
	Startup      ThresholdStartup
}

// EventRefs names, for each test outcome a Trigger can produce, which Event
// (by owner+name) to fire.
type EventRefs struct {
	Fired        string // generic "trigger fired" — existence/boolean tests
	Rising       string
	Falling      string
	DeltaRising  string
	DeltaFalling string
	Failure      string
}

// Trigger is one row of the Event-MIB trigger table, per spec §4.4.
type Trigger struct {
	Owner, Name string

	OID        ber.OID
	Wildcarded bool
	Frequency  time.Duration

	Tests TestBit

	Delta            bool
	DiscontinuityOID ber.OID

	Existence ExistenceConfig
	Boolean   BooleanConfig
	Threshold ThresholdConfig

	Events EventRefs

	Enabled bool
	Active  bool
	// Fixed marks an internal hardcoded trigger (spec §4.4 "Internal
	// events") that is never persisted.
	Fixed bool

	state triggerState
}

type triggerState struct {
	previous       map[string]int64
	current        map[string]int64
	discPrevious   map[string]int64
	existenceSeen  map[string]bool
	booleanState   map[string]bool
	thresholdState map[string]ThresholdState
	started        bool
}

func newTriggerState() triggerState {
	return triggerState{
		previous:       make(map[string]int64),
		current:        make(map[string]int64),
		discPrevious:   make(map[string]int64),
		existenceSeen:  make(map[string]bool),
		booleanState:   make(map[string]bool),
		thresholdState: make(map[string]ThresholdState),
	}
}

// key identifies a trigger by its composite index, per spec §4.4.
func (t *Trigger) key() string { return t.Owner + "\x00" + t.Name }

// Event is one row of the Event-MIB event table, per spec §4.4.
type Event struct {
	Owner, Name string

	ActionNotification bool
	ActionSet          bool

	// NotificationOID is the mteNotification snmpTrapOID value for this
	// event; ObjectList is the event's own payload-object template list
	// (appended to the trigger's, ordered per the engine's
	// StrictOrdering setting).
	NotificationOID ber.OID
	ObjectList      []ber.OID

	SetOID     ber.OID
	SetValue   *snmp.TypedValue
	SetContext string
	ObjWild    bool

	// Fixed marks a built-in event (spec §4.4 "Internal events").
	Fixed bool
}

func (e *Event) key() string { return e.Owner + "\x00" + e.Name }
