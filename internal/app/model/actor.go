package model

// Actor identifies who is performing a cart or order operation. Exactly one
// of UserID (authenticated customer) or GuestID (anonymous session token) is
// set; handlers construct it once per request and services pass it through
// explicitly instead of reading ambient request state.
type Actor struct {
	UserID  uint
	GuestID string
}

func UserActor(userID uint) Actor {
	return Actor{UserID: userID}
}

func GuestActor(sessionID string) Actor {
	return Actor{GuestID: sessionID}
}

func (a Actor) IsGuest() bool {
	return a.UserID == 0
}

// Valid reports whether exactly one identity side is populated.
func (a Actor) Valid() bool {
	return (a.UserID != 0) != (a.GuestID != "")
}

// LogFields returns the identity fields used in structured log entries.
func (a Actor) LogFields() map[string]interface{} {
	if a.IsGuest() {
		return map[string]interface{}{"guest_id": a.GuestID}
	}
	return map[string]interface{}{"user_id": a.UserID}
}
