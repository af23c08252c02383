package domain

// CanMessage is the single authorization predicate of the conversation layer.
// It gates every message read or write and every room join.
func CanMessage(c Connection, actorID string) bool {
	if c.Status != ConnectionStatusAccepted {
		return false
	}
	switch c.RoleOf(actorID) {
	case RoleNGO, RoleArtisan:
		return true
	case RoleUser, RoleAdmin:
		return false
	default:
		return false
	}
}
