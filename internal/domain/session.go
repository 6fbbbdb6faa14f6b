package domain

// Session is the per-visitor auth state the guards decide on.
type Session struct {
	CurrentUser *User  `json:"currentUser"`
	Loading     bool   `json:"loading"`
	Token       string `json:"-"`
}

// State is the closed set of session states a guard can observe.
type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateUser
	StatePendingAdmin
	StateAdmin
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "unauthenticated"
	case StateUser:
		return "authenticated-user"
	case StatePendingAdmin:
		return "authenticated-admin-pending"
	case StateAdmin:
		return "authenticated-admin"
	}
	return "unknown"
}

// State collapses the session into one of the guard states. Loading wins
// over everything; pending is only reported for non-admin accounts.
func (s Session) State() State {
	if s.Loading {
		return StateLoading
	}
	if s.CurrentUser == nil {
		return StateAnonymous
	}
	switch s.CurrentUser.Role {
	case RoleAdmin:
		return StateAdmin
	case RoleUser:
		if s.CurrentUser.PendingAdmin {
			return StatePendingAdmin
		}
		return StateUser
	}
	return StateUser
}

func Anonymous() Session { return Session{} }

func Loading(token string) Session { return Session{Loading: true, Token: token} }

func Authenticated(u *User, token string) Session {
	return Session{CurrentUser: u, Token: token}
}
