package risk

import "fmt"

// Alert builds the advisory message shown to a student for their current
// risk tier. High and Medium tiers are flagged for counselor follow-up.
func Alert(name string, label Label) string {
	if name == "" {
		name = "Student"
	}
	switch label {
	case LabelHigh:
		return fmt.Sprintf("HIGH ALERT: %s, immediate attention required. Please contact your counselor or visit the counseling center.", name)
	case LabelMedium:
		return fmt.Sprintf("MEDIUM ALERT: %s, we've noticed some concerns. Please consider speaking with a counselor.", name)
	default:
		return fmt.Sprintf("SAFE STATUS: %s, you're doing well. Support is always available if needed.", name)
	}
}

// NeedsCounselor reports whether a tier gets assigned counselor follow-up.
func NeedsCounselor(label Label) bool {
	return label == LabelHigh || label == LabelMedium
}
