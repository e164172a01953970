// Package guard decides whether the current session may access a protected
// view. The decision is a pure value; acting on it (redirecting, rendering)
// belongs to the surrounding transport layer, which keeps the policy testable
// without a rendering environment.
package guard

import (
	"reservation-client/internal/session/domain/model"
	"reservation-client/internal/session/usecase"
)

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	// Defer: session restoration is still in flight; render nothing observable
	// yet. Deferring instead of redirecting prevents the flash-redirect race
	// against a session still being restored.
	Defer Decision = iota
	// Allow: render the protected content.
	Allow
	// RedirectToLogin: no valid session.
	RedirectToLogin
	// RedirectToHome: authenticated, but not authorized for this view.
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case Defer:
		return "DEFER"
	case Allow:
		return "ALLOW"
	case RedirectToLogin:
		return "REDIRECT_TO_LOGIN"
	case RedirectToHome:
		return "REDIRECT_TO_HOME"
	default:
		return "UNKNOWN"
	}
}

// AnyRole means any authenticated role is sufficient.
const AnyRole = model.Role("")

// Decide evaluates access for the given session snapshot and required role.
// It must be called afresh on every guarded navigation — a role change after
// re-login re-gates immediately because the decision is never cached.
func Decide(snap usecase.Snapshot, required model.Role) Decision {
	if snap.Loading {
		return Defer
	}
	if !snap.Authenticated() {
		return RedirectToLogin
	}
	if required != AnyRole && snap.Session.Role != required {
		return RedirectToHome
	}
	return Allow
}
