package auth

// Session is the explicit wallet-session context injected into every workflow
// call. Each operation reads it once at entry and treats it as immutable for
// the operation's duration. ID changes whenever a new session is established,
// so it doubles as a session version token.
type Session struct {
	// Address is the checksummed account address bound to the session.
	Address string
	// ID is the unique identifier of this session instance.
	ID string
}

// Active reports whether the session can authorize operations.
func (s *Session) Active() bool {
	return s != nil && s.Address != ""
}
