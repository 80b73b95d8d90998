package web

import (
	"net/http"
	"strings"

	"petguard/internal/ports/auth"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", map[string]any{
		"Title":   "Iniciar sesión",
		"Message": loginNotice(r.URL.Query().Get("msg")),
	})
}

func loginNotice(code string) string {
	switch code {
	case "confirm-email":
		return "Te enviamos un email para confirmar tu cuenta."
	case "logged-out":
		return "Cerraste sesión."
	default:
		return ""
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	_, tokens, err := s.sessions.SignIn(r.Context(), auth.Credentials{
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		s.render(w, formStatus(err), "login.html", map[string]any{
			"Title": "Iniciar sesión",
			"Email": email,
			"Error": userMessage(err),
		})
		return
	}

	s.cookies.WriteTokens(w, r, tokens)
	http.Redirect(w, r, s.policy.LandingPath, http.StatusSeeOther)
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "signup.html", map[string]any{"Title": "Crear cuenta"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	in := auth.SignUpInput{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		FullName: strings.TrimSpace(r.PostFormValue("full_name")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
	}

	_, tokens, err := s.sessions.SignUp(r.Context(), in)
	if err != nil {
		s.render(w, formStatus(err), "signup.html", map[string]any{
			"Title":    "Crear cuenta",
			"Email":    in.Email,
			"FullName": in.FullName,
			"Phone":    in.Phone,
			"Error":    userMessage(err),
		})
		return
	}

	// sin tokens: el backend pide confirmar el email antes del primer login
	if tokens.Empty() {
		http.Redirect(w, r, s.policy.LoginPath+"?msg=confirm-email", http.StatusSeeOther)
		return
	}
	s.cookies.WriteTokens(w, r, tokens)
	http.Redirect(w, r, s.policy.LandingPath, http.StatusSeeOther)
}

// handleLogout espera a que SignOut termine antes de redirigir, así la
// próxima página ya ve la sesión cerrada.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	tokens := s.cookies.ReadTokens(r)
	if err := s.sessions.SignOut(r.Context(), tokens); err != nil {
		s.log.Warn("sign out failed", map[string]any{"error": err})
	}
	s.cookies.ClearTokens(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
