package models

// Notification is what a sink renders for the user.
type Notification struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Urgent bool   `json:"urgent"`
	Silent bool   `json:"silent"`
	// Sound names the azan recording for sinks that can play audio.
	Sound string `json:"sound,omitempty"`
	// Prayer is set for prayer notifications so sinks can offer a snooze.
	Prayer Prayer `json:"prayer,omitempty"`
}
