// Package conversation implements the publish dialog: an image arrives,
// the bot collects a caption and a publish time, then posts the image to
// the configured wall. The machine owns its sessions, keyed by chat ID,
// and talks to the outside world only through the Actions and Publisher
// interfaces, so the whole flow is testable without a transport.
package conversation

// State identifies a step of the publish dialog.
type State string

const (
	// StateIdle indicates there is no active conversation in the chat.
	StateIdle State = "idle"
	// StateAwaitingDescription waits for the caption text.
	StateAwaitingDescription State = "awaiting_description"
	// StateAwaitingTimingChoice waits for the "Now" / "Other date" answer.
	StateAwaitingTimingChoice State = "awaiting_timing_choice"
	// StateAwaitingDatePick waits for a calendar button press.
	StateAwaitingDatePick State = "awaiting_date_pick"
	// StateAwaitingTime waits for an HH:MM time of day.
	StateAwaitingTime State = "awaiting_time"
)
