package appointments

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/medvault/patient-portal/internal/portal"
)

// RequestSource loads standalone emergency requests.
type RequestSource interface {
	ListEmergencyRequests(ctx context.Context, sess portal.Session) ([]portal.EmergencyRequest, error)
}

// Overview is everything the appointment screens need in one load.
type Overview struct {
	Appointments []portal.Appointment
	Requests     []portal.EmergencyRequest
}

// LoadOverview refreshes the ledger and fetches emergency requests
// concurrently. The two lists are independent; either failure fails the load.
func LoadOverview(ctx context.Context, ledger *Ledger, requests RequestSource) (*Overview, error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ledger.Refresh(gctx)
	})

	var reqs []portal.EmergencyRequest
	g.Go(func() error {
		var err error
		reqs, err = requests.ListEmergencyRequests(gctx, ledger.Session())
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Overview{Appointments: ledger.All(), Requests: reqs}, nil
}
