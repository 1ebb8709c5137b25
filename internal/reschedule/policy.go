// Package reschedule decides whether an appointment may be moved and carries
// out the move with an optimistic local update reconciled against the backend.
package reschedule

import (
	"time"

	"github.com/medvault/patient-portal/internal/portal"
)

// MinNotice is how far ahead an approved appointment must be to move it.
const MinNotice = 24 * time.Hour

// Reason explains a Decision.
type Reason string

const (
	ReasonNoValidTime        Reason = "No valid appointment time"
	ReasonAlreadyRescheduled Reason = "Already rescheduled once"
	ReasonLessThan24Hours    Reason = "Less than 24 hours remaining"
	ReasonEligible           Reason = "Eligible for rescheduling"
	ReasonTimePassed         Reason = "Appointment time has passed"
	ReasonStatusNotEligible  Reason = "Status not eligible for rescheduling"
)

// Decision is the outcome of CanReschedule.
type Decision struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason"`
}

// Message is the text shown to a patient whose reschedule is blocked.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonEligible:
		return string(ReasonEligible)
	case ReasonAlreadyRescheduled:
		return "This appointment has already been rescheduled once and cannot be rescheduled again."
	case ReasonLessThan24Hours:
		return "Approved appointments can only be rescheduled up to 24 hours before the appointment time."
	case ReasonTimePassed:
		return "This appointment's time has already passed."
	default:
		return "Cannot reschedule this appointment."
	}
}

// Err converts a blocking decision into an EligibilityError; nil when eligible.
func (d Decision) Err() error {
	if d.Eligible {
		return nil
	}
	return &portal.EligibilityError{Reason: string(d.Reason), Message: d.Message()}
}

// AlreadyRescheduled reports whether the appointment used its one reschedule.
// A recorded reason counts even when the backend did not bump the counter.
func AlreadyRescheduled(appt portal.Appointment) bool {
	return appt.RescheduleCount >= 1 || portal.HasContent(appt.RescheduleReason)
}

// CanReschedule evaluates the policy at now. Zone-less start times are read
// in now's location. The result depends on now and must not be cached.
func CanReschedule(appt portal.Appointment, now time.Time) Decision {
	start, err := appt.StartAt(now.Location())
	if err != nil {
		return Decision{Reason: ReasonNoValidTime}
	}
	if AlreadyRescheduled(appt) {
		return Decision{Reason: ReasonAlreadyRescheduled}
	}

	remaining := start.Sub(now)
	switch appt.Status {
	case portal.StatusApproved:
		if remaining <= MinNotice {
			return Decision{Reason: ReasonLessThan24Hours}
		}
		return Decision{Eligible: true, Reason: ReasonEligible}
	case portal.StatusPending:
		if remaining <= 0 {
			return Decision{Reason: ReasonTimePassed}
		}
		return Decision{Eligible: true, Reason: ReasonEligible}
	default:
		return Decision{Reason: ReasonStatusNotEligible}
	}
}
