package holders

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/metrics"
)

// Admin is the privileged interface to the weight schedule.
// Schedule updates carry no fee and are not validated: zero shares and any
// number of offsets are accepted.
type Admin struct {
	store Store
	auth  Authorizer
	log   logrus.FieldLogger
}

// NewAdmin returns an Admin writing to store and gated by auth.
func NewAdmin(store Store, auth Authorizer, log logrus.FieldLogger) *Admin {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Admin{store: store, auth: auth, log: log}
}

// SetSchedule atomically replaces the whole weight schedule.
// Unauthorized calls fail with ErrUnauthorized and change nothing.
func (a *Admin) SetSchedule(origin Origin, schedule inter.Schedule) error {
	if !a.auth.IsPrivileged(origin) {
		metrics.ScheduleUpdates.WithLabelValues("unauthorized").Inc()
		return fmt.Errorf("set schedule from %s: %w", origin, ErrUnauthorized)
	}

	if err := a.store.SetSchedule(schedule); err != nil {
		a.store.Rollback()
		metrics.ScheduleUpdates.WithLabelValues("error").Inc()
		return fmt.Errorf("set schedule: %w", err)
	}
	if err := a.store.Commit(); err != nil {
		a.store.Rollback()
		metrics.ScheduleUpdates.WithLabelValues("error").Inc()
		return fmt.Errorf("commit schedule: %w", err)
	}

	metrics.ScheduleUpdates.WithLabelValues("ok").Inc()
	a.log.WithFields(logrus.Fields{
		"origin":  origin.String(),
		"offsets": len(schedule),
		"hash":    schedule.Hash().String(),
	}).Info("Holder rewards schedule replaced")
	return nil
}

// Schedule returns the current weight schedule.
func (a *Admin) Schedule() (inter.Schedule, error) {
	return a.store.Schedule()
}
