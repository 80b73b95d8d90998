// Package guard decide quién puede ver las páginas protegidas.
// RouteGuard corre antes de servir cada request; ClientGuard re-valida
// la sesión mientras una página del dashboard está abierta.
package guard

import "strings"

type PathClass int

const (
	PathOther PathClass = iota
	PathProtected
	// PathAuthEntry son login (y signup si RedirectSignup).
	PathAuthEntry
)

func (c PathClass) String() string {
	switch c {
	case PathProtected:
		return "protected"
	case PathAuthEntry:
		return "auth_entry"
	default:
		return "other"
	}
}

type Action int

const (
	Continue Action = iota
	RedirectLogin
	RedirectLanding
)

func (a Action) String() string {
	switch a {
	case RedirectLogin:
		return "redirect_login"
	case RedirectLanding:
		return "redirect_landing"
	default:
		return "continue"
	}
}

// Policy es la configuración inmutable del guard.
type Policy struct {
	ProtectedPrefixes []string
	LoginPath         string
	SignupPath        string
	LandingPath       string
	RedirectSignup    bool
	Debug             bool
}

func DefaultPolicy() Policy {
	return Policy{
		ProtectedPrefixes: []string{"/dashboard"},
		LoginPath:         "/auth/login",
		SignupPath:        "/auth/signup",
		LandingPath:       "/dashboard",
		RedirectSignup:    true,
	}
}

// Classify ubica el path en la tabla de decisión. Un prefijo "/dashboard"
// cubre "/dashboard" y "/dashboard/...", pero no "/dashboards".
func (p Policy) Classify(path string) PathClass {
	for _, prefix := range p.ProtectedPrefixes {
		prefix = strings.TrimRight(prefix, "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return PathProtected
		}
	}
	if p.LoginPath != "" && path == p.LoginPath {
		return PathAuthEntry
	}
	if p.RedirectSignup && p.SignupPath != "" && path == p.SignupPath {
		return PathAuthEntry
	}
	return PathOther
}

// Decide es la tabla de decisión del route guard.
func Decide(class PathClass, hasSession bool) Action {
	switch {
	case class == PathProtected && !hasSession:
		return RedirectLogin
	case class == PathAuthEntry && hasSession:
		return RedirectLanding
	default:
		return Continue
	}
}

// Location devuelve a dónde redirige la acción. No se preserva la URL original.
func (p Policy) Location(a Action) string {
	switch a {
	case RedirectLogin:
		return p.LoginPath
	case RedirectLanding:
		return p.LandingPath
	default:
		return ""
	}
}
