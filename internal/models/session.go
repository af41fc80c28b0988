package models

// Session identifies the caller of a service operation. It is built from the
// verified token and passed explicitly; services never read ambient state.
type Session struct {
	StoreID  int64
	UserID   int64
	Username string
	Role     string
}

func (s Session) IsOwner() bool { return s.Role == RoleOwner }

// Valid reports whether the session is bound to a store and a user.
func (s Session) Valid() bool { return s.StoreID > 0 && s.UserID > 0 }
