package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/pkg/logging"
)

const defaultIdleTTL = 30 * time.Minute

// ErrWizardNotFound covers unknown, expired and foreign wizard ids alike.
var ErrWizardNotFound = errors.New("booking: wizard not found")

// Factory builds a fresh wizard for a session.
type Factory func(sess portal.Session) *Wizard

type registryEntry struct {
	wizard    *Wizard
	patientID int64
	lastUsed  time.Time
}

// Registry keeps live wizards for the HTTP surface, keyed by a generated id
// and scoped to the owning patient.
type Registry struct {
	factory Factory
	ttl     time.Duration
	logger  *logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates a registry whose wizards expire after ttl of inactivity.
func NewRegistry(factory Factory, ttl time.Duration, logger *logging.Logger) *Registry {
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		factory: factory,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Create starts a wizard for sess and returns its id.
func (r *Registry) Create(sess portal.Session) (string, *Wizard) {
	w := r.factory(sess)
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &registryEntry{wizard: w, patientID: sess.PatientID, lastUsed: r.now()}
	return id, w
}

// Get returns the wizard when it exists, is live and belongs to sess.
func (r *Registry) Get(id string, sess portal.Session) (*Wizard, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok || entry.patientID != sess.PatientID {
		r.mu.Unlock()
		return nil, ErrWizardNotFound
	}
	now := r.now()
	if now.Sub(entry.lastUsed) > r.ttl {
		delete(r.entries, id)
		r.mu.Unlock()
		return nil, ErrWizardNotFound
	}
	entry.lastUsed = now
	r.mu.Unlock()

	entry.wizard.renewSession(sess)
	return entry.wizard, nil
}

// Delete drops a wizard owned by sess.
func (r *Registry) Delete(id string, sess portal.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[id]; ok && entry.patientID == sess.PatientID {
		delete(r.entries, id)
	}
}

// Len reports the number of tracked wizards, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes idle wizards and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, entry := range r.entries {
		if now.Sub(entry.lastUsed) > r.ttl {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle wizards every interval. Blocks until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("wizard sweeper shutting down")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("swept idle booking wizards", "count", n)
			}
		}
	}
}
