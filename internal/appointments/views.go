package appointments

import (
	"strings"
	"time"

	"github.com/medvault/patient-portal/internal/emergency"
	"github.com/medvault/patient-portal/internal/pagination"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/reschedule"
)

// StatusAll keeps appointments of every status.
const StatusAll = "ALL"

// Item is one appointment prepared for display.
type Item struct {
	portal.Appointment
	DoctorDisplayName string                  `json:"doctorDisplayName"`
	Reschedule        reschedule.Decision     `json:"reschedule"`
	RescheduleMessage string                  `json:"rescheduleMessage,omitempty"`
	Notes             []portal.ClassifiedNote `json:"notes"`
}

// RegularView is the non-emergency appointment list.
type RegularView struct {
	Page   pagination.Page[Item] `json:"page"`
	Pages  []pagination.Marker   `json:"pages"`
	Counts map[string]int        `json:"counts"`
}

// EmergencyView is the combined emergency list.
type EmergencyView struct {
	Page   pagination.Page[emergency.Entry] `json:"page"`
	Pages  []pagination.Marker              `json:"pages"`
	Counts map[string]int                   `json:"counts"`
}

// NormalizeStatus upper-cases a status filter; blank means StatusAll.
func NormalizeStatus(status string) string {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		return StatusAll
	}
	return status
}

// BuildRegular filters the regular bucket by status, evaluates reschedule
// eligibility at now and paginates. Eligibility is recomputed on every call.
func BuildRegular(appts []portal.Appointment, status string, page, pageSize int, now time.Time) RegularView {
	status = NormalizeStatus(status)
	regular, _ := emergency.Split(appts)

	counts := map[string]int{StatusAll: len(regular)}
	items := make([]Item, 0, len(regular))
	for _, a := range regular {
		counts[string(a.Status)]++
		if status != StatusAll && string(a.Status) != status {
			continue
		}
		d := reschedule.CanReschedule(a, now)
		item := Item{
			Appointment:       a,
			DoctorDisplayName: portal.FormatDoctorName(a.DoctorName),
			Reschedule:        d,
			Notes:             emergency.Segments(a.PatientNotes),
		}
		if !d.Eligible {
			item.RescheduleMessage = d.Message()
		}
		items = append(items, item)
	}

	p := pagination.Paginate(items, pageSize, page)
	return RegularView{
		Page:   p,
		Pages:  pagination.PageNumbers(p.CurrentPage, p.TotalPages),
		Counts: counts,
	}
}

// BuildEmergency merges standalone requests with emergency-classified
// appointments, filters by status and paginates.
func BuildEmergency(requests []portal.EmergencyRequest, appts []portal.Appointment, status string, page, pageSize int) EmergencyView {
	status = NormalizeStatus(status)
	entries := emergency.Combine(requests, appts)

	counts := map[string]int{StatusAll: len(entries)}
	for _, e := range entries {
		counts[string(e.Request.Status)]++
	}

	p := pagination.Paginate(emergency.FilterByStatus(entries, status), pageSize, page)
	return EmergencyView{
		Page:   p,
		Pages:  pagination.PageNumbers(p.CurrentPage, p.TotalPages),
		Counts: counts,
	}
}
