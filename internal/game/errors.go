package game

import "errors"

// Reason is the machine-readable tag of a rejected command.
type Reason string

const (
	ReasonInvalidTarget     Reason = "invalid_target"
	ReasonAlready           Reason = "already"
	ReasonUnknownWar        Reason = "unknown_war"
	ReasonNoPendingEvent    Reason = "no_pending_event"
	ReasonInvalidChoice     Reason = "invalid_choice"
	ReasonUnknownMission    Reason = "unknown_mission"
	ReasonNotCompleted      Reason = "not_completed"
	ReasonAlreadyClaimed    Reason = "already_claimed"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonUnknownSector     Reason = "unknown_sector"
	ReasonUnknownBranch     Reason = "unknown_branch"
	ReasonUnknownRegion     Reason = "unknown_region"
	ReasonUnknownTech       Reason = "unknown_tech"
	ReasonTechLocked        Reason = "tech_locked"
	ReasonGameOver          Reason = "game_over"
	ReasonInvalidAmount     Reason = "invalid_amount"
)

// Error is a rejected command. Commands that return an Error leave the state
// untouched.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Message
}

// Is matches any *Error carrying the same reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

func reject(reason Reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}

var (
	ErrInvalidTarget       = &Error{Reason: ReasonInvalidTarget}
	ErrAlreadyAtWar        = &Error{Reason: ReasonAlready}
	ErrUnknownWar          = &Error{Reason: ReasonUnknownWar}
	ErrNoPendingEvent      = &Error{Reason: ReasonNoPendingEvent}
	ErrInvalidChoice       = &Error{Reason: ReasonInvalidChoice}
	ErrUnknownMission      = &Error{Reason: ReasonUnknownMission}
	ErrMissionNotCompleted = &Error{Reason: ReasonNotCompleted}
	ErrMissionClaimed      = &Error{Reason: ReasonAlreadyClaimed}
	ErrInsufficientFunds   = &Error{Reason: ReasonInsufficientFunds}
	ErrUnknownSector       = &Error{Reason: ReasonUnknownSector}
	ErrUnknownBranch       = &Error{Reason: ReasonUnknownBranch}
	ErrUnknownRegion       = &Error{Reason: ReasonUnknownRegion}
	ErrUnknownTech         = &Error{Reason: ReasonUnknownTech}
	ErrTechLocked          = &Error{Reason: ReasonTechLocked}
	ErrGameOver            = &Error{Reason: ReasonGameOver}
	ErrInvalidAmount       = &Error{Reason: ReasonInvalidAmount}
)

// ReasonOf extracts the reason tag from err, or "" when err is not a command
// rejection.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
