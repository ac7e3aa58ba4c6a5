package core

// CommandKind describes what the hub is asked to do.
type CommandKind int

const (
	// CommandRegister adds a session to the broadcast targets.
	CommandRegister CommandKind = iota
	// CommandUnregister removes a session.
	CommandUnregister
	// CommandAssign records a new ticket assignment and fans out the snapshot.
	CommandAssign
	// CommandSnapshot reads the current snapshot.
	CommandSnapshot
	// CommandResend pushes the current snapshot to one session.
	CommandResend
)

// Command is processed by the hub loop one at a time.
type Command struct {
	Kind       CommandKind
	Session    Session
	Assignment TicketAssignment

	reply chan commandResult
}

type commandResult struct {
	slots []*TicketAssignment
	err   error
}
