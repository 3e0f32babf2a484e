package model

// Preference controls which direct notifications reach a user.
// Channel posts are not gated by preferences.
type Preference struct {
	UserID              string
	NotifyStaticField   bool
	NotifyClosedThreads bool
}

// DefaultPreference is what a user gets before they ever change anything.
func DefaultPreference(userID string) Preference {
	return Preference{
		UserID:              userID,
		NotifyStaticField:   true,
		NotifyClosedThreads: true,
	}
}
