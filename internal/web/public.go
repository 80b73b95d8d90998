package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"petguard/internal/domain/public"
	"petguard/internal/domain/reports"
	"petguard/internal/platform/apperr"
)

func (s *Server) handlePublicPet(w http.ResponseWriter, r *http.Request) {
	v, err := s.public.Lookup(r.Context(), chi.URLParam(r, "shortID"))
	if err != nil {
		s.publicError(w, err)
		return
	}

	w.Header().Set("Cache-Control", public.CacheControl)
	s.render(w, http.StatusOK, "public_pet.html", map[string]any{
		"Title": v.Name,
		"Pet":   v,
		"Form":  reports.SubmitInput{},
	})
}

func (s *Server) handlePublicReport(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortID")

	if !s.limiter.Allow(public.ClientKey(r)) {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "Demasiados reportes seguidos. Probá de nuevo en un minuto.", http.StatusTooManyRequests)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in := reports.SubmitInput{
		FinderName:  r.PostForm.Get("finder_name"),
		FinderPhone: r.PostForm.Get("finder_phone"),
		FinderEmail: r.PostForm.Get("finder_email"),
		Location:    r.PostForm.Get("location"),
		Message:     r.PostForm.Get("message"),
	}
	// coordenadas ilegibles se ignoran: la geolocalización es opcional
	in.Latitude = parseCoord(r.PostForm.Get("latitude"))
	in.Longitude = parseCoord(r.PostForm.Get("longitude"))

	rep, err := s.public.SubmitReport(r.Context(), shortID, in)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.notFound(w)
			return
		}
		v, lookupErr := s.public.Lookup(r.Context(), shortID)
		if lookupErr != nil {
			s.publicError(w, lookupErr)
			return
		}
		s.render(w, apperr.HTTPStatus(err), "public_pet.html", map[string]any{
			"Title": v.Name,
			"Pet":   v,
			"Form":  in,
			"Error": userMessage(err),
		})
		return
	}

	s.render(w, http.StatusCreated, "report_sent.html", map[string]any{
		"Title":  "Reporte enviado",
		"Report": rep,
	})
}

// publicError: inactiva e inexistente muestran la misma página.
func (s *Server) publicError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		s.notFound(w)
		return
	}
	s.log.Error("public lookup failed", map[string]any{"error": err})
	http.Error(w, "Servicio no disponible, intentá de nuevo.", apperr.HTTPStatus(err))
}

func parseCoord(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
