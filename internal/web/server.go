// Package web sirve las páginas HTML: auth, dashboard del dueño y la
// página pública de la mascota.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"petguard/internal/domain/pets"
	"petguard/internal/domain/profiles"
	"petguard/internal/domain/public"
	"petguard/internal/domain/reports"
	"petguard/internal/guard"
	"petguard/internal/platform/logger"
	"petguard/internal/ports/photos"
	"petguard/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{
	"login.html",
	"signup.html",
	"dashboard.html",
	"pet_form.html",
	"limit.html",
	"reports.html",
	"public_pet.html",
	"report_sent.html",
	"not_found.html",
}

type Options struct {
	Sessions *session.Adapter
	Cookies  session.CookieCodec

	Profiles *profiles.Service
	Pets     *pets.Service
	Reports  *reports.Service
	Public   *public.Service
	Limiter  *public.ClientLimiter

	// Photos sirve /photos/* cuando no hay CDN; puede ser nil.
	Photos photos.Store

	Policy        guard.Policy
	ClientTimeout time.Duration

	Logger logger.Logger
}

type Server struct {
	sessions *session.Adapter
	cookies  session.CookieCodec
	profiles *profiles.Service
	pets     *pets.Service
	reports  *reports.Service
	public   *public.Service
	limiter  *public.ClientLimiter
	photos   photos.Store

	policy        guard.Policy
	clientTimeout time.Duration

	pages map[string]*template.Template
	log   logger.Logger
}

func NewServer(opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	funcs := template.FuncMap{
		"sub":  func(a, b int) int { return a - b },
		"date": func(t time.Time) string { return t.Local().Format("02/01/2006 15:04") },
		"coords": func(lat, lng *float64) string {
			if lat == nil || lng == nil {
				return ""
			}
			return reports.CoordinatesText(*lat, *lng)
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Server{
		sessions:      opts.Sessions,
		cookies:       opts.Cookies,
		profiles:      opts.Profiles,
		pets:          opts.Pets,
		reports:       opts.Reports,
		public:        opts.Public,
		limiter:       opts.Limiter,
		photos:        opts.Photos,
		policy:        opts.Policy,
		clientTimeout: opts.ClientTimeout,
		pages:         pages,
		log:           log.With(map[string]any{"component": "web"}),
	}, nil
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(securityHeaders)

		r.Get("/", s.handleHome)

		r.Get(s.policy.LoginPath, s.handleLoginForm)
		r.Post(s.policy.LoginPath, s.handleLogin)
		r.Get(s.policy.SignupPath, s.handleSignupForm)
		r.Post(s.policy.SignupPath, s.handleSignup)
		r.Post("/auth/logout", s.handleLogout)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", s.handleDashboard)
			r.Get("/live", s.handleLive)
			r.Get("/reports", s.handleReports)
			r.Get("/pets/new", s.handleNewPetForm)
			r.Post("/pets", s.handleCreatePet)
			r.Get("/pets/{petID}", s.handleEditPetForm)
			r.Post("/pets/{petID}", s.handleUpdatePet)
			r.Post("/pets/{petID}/photo", s.handleUploadPhoto)
		})

		r.Get("/pet/{shortID}", s.handlePublicPet)
		r.Post("/pet/{shortID}/report", s.handlePublicReport)
	})

	if s.photos != nil {
		r.Get("/photos/*", s.handlePhoto)
	}
}

// securityHeaders agrega headers defensivos a las páginas HTML.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data: https:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.policy.LoginPath, http.StatusSeeOther)
}

// render ejecuta la página completa en un buffer: un error de template
// no deja una respuesta a medio escribir.
func (s *Server) render(w http.ResponseWriter, status int, page string, data map[string]any) {
	t, ok := s.pages[page]
	if !ok {
		s.log.Error("unknown page", map[string]any{"page": page})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.log.Error("render page failed", map[string]any{"page": page, "error": err})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) notFound(w http.ResponseWriter) {
	s.render(w, http.StatusNotFound, "not_found.html", map[string]any{"Title": "No encontrado"})
}
