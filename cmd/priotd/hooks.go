package main

import (
	"github.com/sirupsen/logrus"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/snmp"
)

// loggingHooks adapts snmp.LifecycleHooks' default log.Printf-based
// implementations to the process's own logrus.Logger, so the lifecycle
// points spec §4.5 names all flow through the same structured logger as
// startup/shutdown.
func loggingHooks(log *logrus.Logger) *snmp.LifecycleHooks {
	return &snmp.LifecycleHooks{
		RegisterOID: func(context string, name ber.OID, priority int) {
			log.WithFields(logrus.Fields{"context": context, "oid": name.String(), "priority": priority}).Debug("oid registered")
		},
		UnregisterOID: func(context string, name ber.OID, priority int) {
			log.WithFields(logrus.Fields{"context": context, "oid": name.String(), "priority": priority}).Debug("oid unregistered")
		},
		SysOREntryAdded: func(name ber.OID, descr string) {
			log.WithFields(logrus.Fields{"oid": name.String(), "descr": descr}).Debug("sysOREntry added")
		},
		SysOREntryRemoved: func(name ber.OID) {
			log.WithField("oid", name.String()).Debug("sysOREntry removed")
		},
		ConfigLoaded: func(path string, err error) {
			log.WithError(err).WithField("path", path).Info("config loaded")
		},
		IndexMilestone: func(oid ber.OID, allocated, capacity int) {
			log.WithFields(logrus.Fields{"oid": oid.String(), "allocated": allocated, "capacity": capacity}).Debug("index milestone")
		},
		TrapSent: func(oid ber.OID, destination string, err error) {
			log.WithError(err).WithFields(logrus.Fields{"oid": oid.String(), "destination": destination}).Debug("trap sent")
		},
		Error: func(location string, err error) {
			log.WithError(err).WithField("location", location).Error("agent error")
		},
	}
}
