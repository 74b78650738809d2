package entity

// Settings is the persisted per-namespace settings blob, owned by the
// core but edited through the options UI.
type Settings struct {
	// MaxSessions caps the number of retained sessions; the oldest are
	// discarded when a new session is prepended past the cap.
	MaxSessions int `json:"maxSessions"`
	// AutoDelete enables the time-based retention sweep.
	AutoDelete bool `json:"autoDelete"`
	// RetentionDays is the age cutoff for the retention sweep.
	RetentionDays int `json:"retentionDays"`
	// DeduplicateTabs enables URL-based dedup within a session.
	DeduplicateTabs bool `json:"deduplicateTabs"`
	// PromptForName asks the user to name new sessions (UI concern; the
	// core only stores the flag).
	PromptForName bool `json:"promptForName"`
}

// DefaultSettings returns the settings applied when no blob is stored.
func DefaultSettings() Settings {
	return Settings{
		MaxSessions:     20,
		AutoDelete:      false,
		RetentionDays:   30,
		DeduplicateTabs: true,
		PromptForName:   false,
	}
}
