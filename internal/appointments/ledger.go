// Package appointments keeps a patient's local appointment state and builds
// the paginated appointment and emergency views on top of it.
package appointments

import (
	"context"
	"fmt"
	"sync"

	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/pkg/logging"
)

// Source loads the patient's appointments from the backend.
type Source interface {
	ListAppointments(ctx context.Context, sess portal.Session) ([]portal.Appointment, error)
}

// Ledger is a read-through copy of one patient's appointments. The backend
// stays authoritative: Refresh replaces local state wholesale.
type Ledger struct {
	source Source
	sess   portal.Session
	logger *logging.Logger

	mu     sync.RWMutex
	items  []portal.Appointment
	loaded bool
}

// NewLedger creates an empty ledger for sess.
func NewLedger(source Source, sess portal.Session, logger *logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{source: source, sess: sess, logger: logger}
}

// Session returns the patient the ledger belongs to.
func (l *Ledger) Session() portal.Session {
	return l.sess
}

// Refresh re-fetches every appointment. On failure the current state is kept.
func (l *Ledger) Refresh(ctx context.Context) error {
	items, err := l.source.ListAppointments(ctx, l.sess)
	if err != nil {
		return fmt.Errorf("appointments: refresh: %w", err)
	}
	l.Replace(items)
	l.logger.Debug("appointments refreshed", "patient_id", l.sess.PatientID, "count", len(items))
	return nil
}

// Replace swaps in a server-provided list.
func (l *Ledger) Replace(items []portal.Appointment) {
	cp := make([]portal.Appointment, len(items))
	copy(cp, items)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = cp
	l.loaded = true
}

// Loaded reports whether the ledger has been filled at least once.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// All returns a copy of every appointment in backend order.
func (l *Ledger) All() []portal.Appointment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]portal.Appointment, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns one appointment by id.
func (l *Ledger) Get(id int64) (portal.Appointment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.items {
		if a.ID == id {
			return a, true
		}
	}
	return portal.Appointment{}, false
}

// Apply mutates one appointment in place. It reports false when id is unknown.
func (l *Ledger) Apply(id int64, fn func(*portal.Appointment)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].ID == id {
			fn(&l.items[i])
			return true
		}
	}
	return false
}
