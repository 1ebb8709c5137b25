package emergency

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/pkg/logging"
)

var reportTracer = otel.Tracer("medvault.internal.emergency")

// Urgency levels accepted for a standalone report.
const (
	UrgencyHigh   = "HIGH"
	UrgencyMedium = "MEDIUM"
	UrgencyLow    = "LOW"
)

// Filer is the backend call that files a standalone emergency report.
type Filer interface {
	SubmitEmergencyRequest(ctx context.Context, sess portal.Session, sub portal.EmergencySubmission) (*portal.EmergencyRequest, error)
}

// Reporter validates and files standalone emergency reports for one session.
type Reporter struct {
	filer   Filer
	session portal.Session
	logger  *logging.Logger
}

// NewReporter creates a reporter acting for sess.
func NewReporter(filer Filer, sess portal.Session, logger *logging.Logger) *Reporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reporter{filer: filer, session: sess, logger: logger}
}

// Normalize trims the submission and applies the default urgency. It returns
// a ValidationError when symptoms or the contact number are missing.
func Normalize(sub portal.EmergencySubmission) (portal.EmergencySubmission, error) {
	sub.Symptoms = strings.TrimSpace(sub.Symptoms)
	sub.ContactNumber = strings.TrimSpace(sub.ContactNumber)
	sub.PatientNotes = strings.TrimSpace(sub.PatientNotes)
	sub.UrgencyLevel = strings.ToUpper(strings.TrimSpace(sub.UrgencyLevel))

	if sub.Symptoms == "" {
		return sub, &portal.ValidationError{Field: "symptoms", Message: "describe your symptoms"}
	}
	if sub.ContactNumber == "" {
		return sub, &portal.ValidationError{Field: "contactNumber", Message: "a contact number is required"}
	}
	switch sub.UrgencyLevel {
	case "":
		sub.UrgencyLevel = UrgencyMedium
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
	default:
		return sub, &portal.ValidationError{Field: "urgencyLevel", Message: fmt.Sprintf("unknown urgency level %q", sub.UrgencyLevel)}
	}
	return sub, nil
}

// Report validates sub and files it. Validation failures never reach the backend.
func (r *Reporter) Report(ctx context.Context, sub portal.EmergencySubmission) (*portal.EmergencyRequest, error) {
	ctx, span := reportTracer.Start(ctx, "emergency.report")
	defer span.End()

	if !r.session.Valid() {
		return nil, fmt.Errorf("emergency: report without session: %w", portal.ErrPrecondition)
	}
	sub, err := Normalize(sub)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("medvault.patient_id", r.session.PatientID),
		attribute.String("medvault.urgency", sub.UrgencyLevel),
	)

	req, err := r.filer.SubmitEmergencyRequest(ctx, r.session, sub)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("emergency report failed", "patient_id", r.session.PatientID, "error", err)
		return nil, err
	}
	r.logger.Info("emergency report filed", "patient_id", r.session.PatientID, "request_id", req.ID, "urgency", sub.UrgencyLevel)
	return req, nil
}
