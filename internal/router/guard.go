package router

import "net/url"

// Session is the part of client state the guard looks at.
type Session struct {
	IsAuthenticated bool
	IsAdmin         bool
}

// Viewer exposes session state. *store.Store implements it.
type Viewer interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// SessionOf reads the current session from v.
func SessionOf(v Viewer) Session {
	return Session{IsAuthenticated: v.IsAuthenticated(), IsAdmin: v.IsAdmin()}
}

// Outcome is what navigation should do.
type Outcome int

const (
	Proceed Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict. Location is empty when navigation proceeds.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Guard decides whether s may enter r. The first matching rule wins:
//
//	auth required, signed out      → login, remembering fullPath
//	admin required, not admin      → home
//	auth required                  → proceed
//	guest only, signed in          → home
//	otherwise                      → proceed
func Guard(r Route, fullPath string, s Session) Decision {
	needsAuth := r.RequiresAuth || r.RequiresAdmin
	switch {
	case needsAuth && !s.IsAuthenticated:
		return Decision{Outcome: RedirectLogin, Location: LoginLocation(fullPath)}
	case r.RequiresAdmin && !s.IsAdmin:
		return Decision{Outcome: RedirectHome, Location: HomePath}
	case needsAuth:
		return Decision{Outcome: Proceed}
	case r.GuestOnly && s.IsAuthenticated:
		return Decision{Outcome: RedirectHome, Location: HomePath}
	default:
		return Decision{Outcome: Proceed}
	}
}

// LoginLocation is the login path carrying fullPath as the redirect target.
func LoginLocation(fullPath string) string {
	if fullPath == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"redirect": {fullPath}}.Encode()
}

// Navigate resolves fullPath and applies the guard for v's session.
func (t *Table) Navigate(fullPath string, v Viewer) (Match, Decision) {
	m := t.Resolve(fullPath)
	return m, Guard(m.Route, fullPath, SessionOf(v))
}
