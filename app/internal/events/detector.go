package events

import (
	"log"

	"dotstatus/app/internal/database"
	"dotstatus/app/internal/models"
)

// Notifier is told about transitions after they are persisted. Both
// methods must be non-blocking (the poll loop calls them inline).
type Notifier interface {
	NotifyDown(t *models.Target, bucket string, reason *string, httpStatus *int)
	NotifyUp(t *models.Target, bucket string)
}

var notifier Notifier

// SetNotifier installs the alert fan-out. Called once at bootstrap,
// before the scheduler starts.
func SetNotifier(n Notifier) { notifier = n }

// Reconcile compares the just-written snapshot for (targetID,
// hourBucket) against the immediately preceding snapshot and opens or
// closes down events on transitions. It is a pure function of snapshot
// history: re-running it after an overwrite of the same bucket is safe,
// and "previous" is strictly by hour-bucket order, so backfilled polls
// reconcile deterministically.
//
// Reconcile never returns an error to its caller's control flow beyond
// reporting; inconsistent states (no open event to close) are tolerated
// silently.
func Reconcile(targetID int64, hourBucket string, isOK bool, reason *string, httpStatus *int) error {
	prev, err := database.PrevSnapshot(targetID, hourBucket)
	if err != nil {
		return err
	}
	if prev == nil {
		// First-ever sample: never synthesize an event from one point.
		return nil
	}

	switch {
	case prev.OK && !isOK:
		// up -> down: open a new event at this bucket. A forced re-poll
		// of the same bucket re-runs this path, so only one event may be
		// open per target at a time.
		open, err := database.LatestOpenEvent(targetID)
		if err != nil {
			return err
		}
		if open != nil {
			return nil
		}
		if err := database.OpenEvent(targetID, hourBucket, reason, httpStatus); err != nil {
			return err
		}
		log.Printf("event opened: target=%d down at %s", targetID, hourBucket)
		if notifier != nil {
			if t, err := database.GetTarget(targetID); err == nil && t != nil {
				notifier.NotifyDown(t, hourBucket, reason, httpStatus)
			}
		}

	case !prev.OK && isOK:
		// down -> up: close the latest open event, if any.
		open, err := database.LatestOpenEvent(targetID)
		if err != nil {
			return err
		}
		if open == nil {
			return nil
		}
		if err := database.CloseEvent(open.ID, hourBucket); err != nil {
			return err
		}
		log.Printf("event closed: target=%d up at %s", targetID, hourBucket)
		if notifier != nil {
			if t, err := database.GetTarget(targetID); err == nil && t != nil {
				notifier.NotifyUp(t, hourBucket)
			}
		}
	}

	// No transition: nothing to write.
	return nil
}
