package slots

import (
	"strings"

	"github.com/medvault/patient-portal/internal/portal"
)

// AllSpecializations is the specialization filter value that matches every doctor.
const AllSpecializations = "All"

// FilterDoctors keeps doctors matching the specialization filter and whose
// first name, last name or specialization contains search (case-insensitive).
func FilterDoctors(doctors []portal.Doctor, specialization, search string) []portal.Doctor {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]portal.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if specialization != "" && specialization != AllSpecializations && d.Specialization != specialization {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.FirstName), needle) &&
			!strings.Contains(strings.ToLower(d.LastName), needle) &&
			!strings.Contains(strings.ToLower(d.Specialization), needle) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Specializations returns "All" followed by each distinct specialization in
// first-seen order.
func Specializations(doctors []portal.Doctor) []string {
	seen := make(map[string]struct{}, len(doctors))
	out := []string{AllSpecializations}
	for _, d := range doctors {
		if d.Specialization == "" {
			continue
		}
		if _, ok := seen[d.Specialization]; ok {
			continue
		}
		seen[d.Specialization] = struct{}{}
		out = append(out, d.Specialization)
	}
	return out
}
