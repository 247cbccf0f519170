package google

// RequiredScopes are the Google OAuth scopes outboxd needs. A persisted
// credential granted for fewer scopes cannot be used and forces a fresh
// authorization.
//
// The scopes provide access to:
//   - Gmail: send, compose, modify
//   - Google Calendar: full access plus event management
var RequiredScopes = []string{
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.compose",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
}

// HasRequiredScopes reports whether granted covers every scope in
// RequiredScopes. Extra granted scopes are fine; missing ones are not.
func HasRequiredScopes(granted []string) bool {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	for _, s := range RequiredScopes {
		if !have[s] {
			return false
		}
	}
	return true
}
