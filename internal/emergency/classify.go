// Package emergency classifies patient notes into labeled segments and routes
// appointments into the emergency or regular display bucket.
package emergency

import (
	"regexp"
	"strings"

	"github.com/medvault/patient-portal/internal/portal"
)

const (
	noEmergencyNotes  = "No emergency notes provided"
	noAdditionalNotes = "No additional notes provided"
)

var emergencyKeywords = []string{
	"emergency:",
	"heart attack",
	"cardiac",
	"chest pain",
	"breathing",
	"unconscious",
	"severe pain",
	"bleeding",
	"fracture",
	"accident",
}

var (
	emergencyMarker = regexp.MustCompile(`(?i)emergency:`)
	notesMarker     = regexp.MustCompile(`^.*Notes:`)
	notesTag        = regexp.MustCompile(`Notes:`)
)

// Result is the classification of one notes string. Segments is nil when the
// notes carry nothing worth showing.
type Result struct {
	IsEmergency bool                    `json:"isEmergency"`
	Segments    []portal.ClassifiedNote `json:"segments"`
}

// IsEmergency reports whether notes mention an emergency marker or keyword.
func IsEmergency(notes string) bool {
	lower := strings.ToLower(notes)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classify routes notes into a bucket and extracts display segments.
func Classify(notes string) Result {
	return Result{
		IsEmergency: IsEmergency(notes),
		Segments:    Segments(notes),
	}
}

// Segments splits "EMERGENCY: ... | Notes: ..." style notes into labeled
// parts. Notes without markers become a single "Patient Notes" segment.
func Segments(notes string) []portal.ClassifiedNote {
	if !portal.HasContent(notes) {
		return nil
	}
	clean := strings.TrimSpace(notes)

	if !emergencyMarker.MatchString(clean) && !notesTag.MatchString(clean) {
		return []portal.ClassifiedNote{{
			Label:   portal.LabelPatientNotes,
			Content: clean,
			Kind:    portal.KindNotes,
		}}
	}

	var out []portal.ClassifiedNote
	for _, part := range strings.Split(clean, "|") {
		part = strings.TrimSpace(part)
		switch {
		case emergencyMarker.MatchString(part):
			content := strings.TrimSpace(replaceFirst(emergencyMarker, part))
			if portal.HasContent(content) {
				out = append(out, portal.ClassifiedNote{Label: portal.LabelEmergency, Content: content, Kind: portal.KindEmergency})
			} else {
				out = append(out, portal.ClassifiedNote{Label: portal.LabelEmergency, Content: noEmergencyNotes, Kind: portal.KindEmergencyEmpty})
			}
		case notesTag.MatchString(part):
			content := strings.TrimSpace(notesMarker.ReplaceAllString(part, ""))
			if portal.HasContent(content) {
				out = append(out, portal.ClassifiedNote{Label: portal.LabelAdditionalNotes, Content: content, Kind: portal.KindNotes})
			} else {
				out = append(out, portal.ClassifiedNote{Label: portal.LabelAdditionalNotes, Content: noAdditionalNotes, Kind: portal.KindNotesEmpty})
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
