package model

import "strings"

// Teacher is a staff directory entry (read-only here).
type Teacher struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Designation string   `json:"designation"`
	Subjects    []string `json:"subjects"` // declared subjects, used for suggestions
}

// Name returns the display name
func (t *Teacher) Name() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// SuggestedSubject returns the first declared subject or "".
func (t *Teacher) SuggestedSubject() string {
	for _, s := range t.Subjects {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
