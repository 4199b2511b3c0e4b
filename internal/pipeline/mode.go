package pipeline

import "fmt"

// StorageMode selects whether messages are emailed, persisted, or both
type StorageMode int

const (
	// ModeEmail only notifies by email, nothing is persisted
	ModeEmail StorageMode = iota
	// ModeDatabase only persists, no notification email is sent
	ModeDatabase
	// ModeBoth persists and notifies
	ModeBoth
)

// ParseStorageMode parses the configured storage mode string
func ParseStorageMode(s string) (StorageMode, error) {
	switch s {
	case "email":
		return ModeEmail, nil
	case "database":
		return ModeDatabase, nil
	case "both":
		return ModeBoth, nil
	}
	return ModeEmail, fmt.Errorf("unknown storage mode %q", s)
}

func (m StorageMode) String() string {
	switch m {
	case ModeEmail:
		return "email"
	case ModeDatabase:
		return "database"
	case ModeBoth:
		return "both"
	}
	return "unknown"
}

// Persists reports whether messages are written to storage in this mode
func (m StorageMode) Persists() bool {
	return m == ModeDatabase || m == ModeBoth
}

// Emails reports whether the admin notification is sent in this mode
func (m StorageMode) Emails() bool {
	return m == ModeEmail || m == ModeBoth
}
