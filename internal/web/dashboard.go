package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"petguard/internal/domain/pets"
	"petguard/internal/domain/profiles"
	"petguard/internal/guard"
	"petguard/internal/middleware"
	"petguard/internal/platform/apperr"
	"petguard/internal/ports/auth"
)

const maxPhotoFormBytes = 6 << 20

// claimsOr redirige al login cuando no hay sesión. El route guard ya lo hace
// en modo session; en los otros modos esta es la única barrera.
func (s *Server) claimsOr(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	c, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(c.UserID) == "" {
		http.Redirect(w, r, s.policy.LoginPath, http.StatusFound)
		return auth.Claims{}, false
	}
	return c, true
}

// dashboardLoader adapta los services a guard.Loader.
type dashboardLoader struct {
	s *Server
}

func (l dashboardLoader) Profile(ctx context.Context, c auth.Claims) (profiles.Profile, error) {
	return l.s.profiles.GetOrCreate(ctx, c.UserID, c.Email)
}

func (l dashboardLoader) Pets(ctx context.Context, owner string) ([]pets.Pet, error) {
	return l.s.pets.ListByOwner(ctx, owner)
}

func (l dashboardLoader) ReportCount(ctx context.Context, owner string) (int, error) {
	return l.s.reports.CountByOwner(ctx, owner)
}

type dashboardView struct {
	guard.Snapshot
	ActivePets int
	Available  int
}

func newDashboardView(snap guard.Snapshot) dashboardView {
	v := dashboardView{Snapshot: snap}
	for _, p := range snap.Pets {
		if p.IsActive {
			v.ActivePets++
		}
	}
	v.Available = snap.Profile.MaxPets - len(snap.Pets)
	if v.Available < 0 {
		v.Available = 0
	}
	return v
}

func (s *Server) loadDashboard(ctx context.Context, c auth.Claims) (dashboardView, error) {
	l := dashboardLoader{s: s}
	prof, err := l.Profile(ctx, c)
	if err != nil {
		return dashboardView{}, err
	}
	owned, err := l.Pets(ctx, c.UserID)
	if err != nil {
		return dashboardView{}, err
	}
	n, err := l.ReportCount(ctx, c.UserID)
	if err != nil {
		return dashboardView{}, err
	}
	return newDashboardView(guard.Snapshot{Claims: c, Profile: prof, Pets: owned, ReportCount: n}), nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.claimsOr(w, r)
	if !ok {
		return
	}

	v, err := s.loadDashboard(r.Context(), c)
	if err != nil {
		s.log.Error("dashboard load failed", map[string]any{"user_id": c.UserID, "error": err})
		s.render(w, apperr.HTTPStatus(err), "dashboard.html", map[string]any{
			"Title": "Mi panel",
			"Error": userMessage(err),
		})
		return
	}

	var success string
	if r.URL.Query().Get("success") == "pet-added" {
		success = "¡Mascota agregada!"
	}
	s.render(w, http.StatusOK, "dashboard.html", map[string]any{
		"Title":   "Mi panel",
		"View":    v,
		"Success": success,
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	c, ok := s.claimsOr(w, r)
	if !ok {
		return
	}

	items, err := s.reports.ListByOwner(r.Context(), c.UserID)
	if err != nil {
		s.render(w, apperr.HTTPStatus(err), "reports.html", map[string]any{
			"Title": "Reportes",
			"Error": userMessage(err),
		})
		return
	}
	s.render(w, http.StatusOK, "reports.html", map[string]any{
		"Title":   "Reportes",
		"Reports": items,
	})
}

func (s *Server) renderLimit(w http.ResponseWriter, qe *apperr.QuotaError) {
	s.render(w, http.StatusConflict, "limit.html", map[string]any{
		"Title":   "Límite alcanzado",
		"Current": qe.Current,
		"Max":     qe.Max,
		"Back":    s.policy.LandingPath,
	})
}

func (s *Server) handleNewPetForm(w http.ResponseWriter, r *http.Request) {
	c, ok := s.claimsOr(w, r)
	if !ok {
		return
	}

	current, max, err := s.pets.CheckQuota(r.Context(), c.UserID)
	if err != nil {
		var qe *apperr.QuotaError
		if errors.As(err, &qe) {
			s.renderLimit(w, qe)
			return
		}
		s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
			"Title": "Agregar mascota",
			"New":   true,
			"Form":  pets.CreateInput{},
			"Error": userMessage(err),
		})
		return
	}

	s.render(w, http.StatusOK, "pet_form.html", map[string]any{
		"Title":   "Agregar mascota",
		"New":     true,
		"Form":    pets.CreateInput{},
		"Current": current,
		"Max":     max,
	})
}

func (s *Server) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.claimsOr(w, r)
	if !ok {
		return
	}

	photo, err := readForm(w, r, "photo")
	if err != nil {
		s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
			"Title": "Agregar mascota",
			"New":   true,
			"Form":  pets.CreateInput{},
			"Error": userMessage(err),
		})
		return
	}

	in := pets.CreateInput{
		Name:              r.FormValue("name"),
		Breed:             r.FormValue("breed"),
		Age:               r.FormValue("age"),
		MedicalConditions: r.FormValue("medical_conditions"),
		Reward:            r.FormValue("reward"),
	}
	// la foto se valida antes del alta: una imagen inválida no deja mascota creada
	if len(photo) > 0 {
		if err := s.pets.ValidatePhoto(photo); err != nil {
			s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
				"Title": "Agregar mascota",
				"New":   true,
				"Form":  in,
				"Error": userMessage(err),
			})
			return
		}
	}

	p, err := s.pets.Create(r.Context(), c.UserID, in)
	if err != nil {
		var qe *apperr.QuotaError
		if errors.As(err, &qe) {
			s.renderLimit(w, qe)
			return
		}
		s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
			"Title": "Agregar mascota",
			"New":   true,
			"Form":  in,
			"Error": userMessage(err),
		})
		return
	}

	if len(photo) > 0 {
		if _, err := s.pets.SetPhoto(r.Context(), c.UserID, p.ID, photo); err != nil {
			// la mascota ya existe: se sigue en la edición con el error de la foto
			s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
				"Title":     "Editar mascota",
				"Pet":       p,
				"PublicURL": s.pets.PublicURL(p),
				"Error":     "La mascota se guardó pero la foto no: " + userMessage(err),
			})
			return
		}
	}

	http.Redirect(w, r, s.policy.LandingPath+"?success=pet-added", http.StatusSeeOther)
}

func (s *Server) handleEditPetForm(w http.ResponseWriter, r *http.Request) {
	c, ok := s.claimsOr(w, r)
	if !ok {
		return
	}

	p, err := s.pets.Get(r.Context(), c.UserID, chi.URLParam(r, "petID"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.notFound(w)
			return
		}
		s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
			"Title": "Editar mascota",
			"Error": userMessage(err),
		})
		return
	}

	var success string
	if r.URL.Query().Get("success") != "" {
		success = "Cambios guardados."
	}
	s.render(w, http.StatusOK, "pet_form.html", map[string]any{
		"Title":     "Editar mascota",
		"Pet":       p,
		"PublicURL": s.pets.PublicURL(p),
		"Success":   success,
	})
}

func (s *Server) handleUpdatePet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.claimsOr(w, r)
	if !ok {
		return
	}
	petID := chi.URLParam(r, "petID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in := pets.UpdateInput{
		Name:              formPtr(r, "name"),
		Breed:             formPtr(r, "breed"),
		Age:               formPtr(r, "age"),
		MedicalConditions: formPtr(r, "medical_conditions"),
		Reward:            formPtr(r, "reward"),
	}
	active := r.PostForm.Get("is_active") == "on"
	in.IsActive = &active

	p, err := s.pets.Update(r.Context(), c.UserID, petID, in)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.notFound(w)
			return
		}
		current, _ := s.pets.Get(r.Context(), c.UserID, petID)
		s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
			"Title":     "Editar mascota",
			"Pet":       current,
			"PublicURL": s.pets.PublicURL(current),
			"Error":     userMessage(err),
		})
		return
	}

	http.Redirect(w, r, s.policy.LandingPath+"/pets/"+p.ID+"?success=updated", http.StatusSeeOther)
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	c, ok := s.claimsOr(w, r)
	if !ok {
		return
	}
	petID := chi.URLParam(r, "petID")

	data, err := pets.ReadUpload(w, r, "photo")
	if err == nil {
		_, err = s.pets.SetPhoto(r.Context(), c.UserID, petID, data)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.notFound(w)
			return
		}
		current, _ := s.pets.Get(r.Context(), c.UserID, petID)
		s.render(w, apperr.HTTPStatus(err), "pet_form.html", map[string]any{
			"Title":     "Editar mascota",
			"Pet":       current,
			"PublicURL": s.pets.PublicURL(current),
			"Error":     userMessage(err),
		})
		return
	}

	http.Redirect(w, r, s.policy.LandingPath+"/pets/"+petID+"?success=photo", http.StatusSeeOther)
}

// formPtr devuelve nil si el campo no vino en el formulario.
func formPtr(r *http.Request, key string) *string {
	vals, ok := r.PostForm[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// readForm parsea el formulario (multipart o urlencoded) y devuelve el
// archivo opcional del campo indicado.
func readForm(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoFormBytes)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, apperr.Invalid("form", "unreadable form")
		}
		return nil, nil
	}

	if err := r.ParseMultipartForm(maxPhotoFormBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Invalid("photo", "file exceeds 5 MB")
		}
		return nil, apperr.Invalid("form", "unreadable form")
	}
	f, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperr.Invalid(field, "unreadable upload")
	}
	defer f.Close()
	return io.ReadAll(f)
}
