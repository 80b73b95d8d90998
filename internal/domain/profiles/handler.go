package profiles

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"petguard/internal/middleware"
	"petguard/internal/platform/apperr"
	"petguard/internal/platform/validation"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me", getMeHandler(svc))
	r.Patch("/me/profile", updateProfileHandler(svc))
}

type profileResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	MaxPets   int       `json:"max_pets"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
}

// getMeHandler godoc
// @Summary Perfil del usuario autenticado
// @Description Devuelve el perfil de cuenta (nombre, teléfono, email y cuota max_pets). Autenticación: cookie de sesión, `Authorization: Bearer <token>` o `X-Debug-User-ID` (dev).
// @Tags profiles
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} profileResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /me [get]
func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		p, err := svc.GetOrCreate(r.Context(), claims.UserID, claims.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// updateProfileHandler godoc
// @Summary Actualizar perfil
// @Description PATCH del nombre y teléfono de contacto que ve quien encuentra la mascota. La cuota no se modifica por esta vía.
// @Tags profiles
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param payload body updateProfileRequest true "Campos a modificar"
// @Success 200 {object} profileResponse
// @Failure 400 {object} map[string]string "invalid json / validación"
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /me/profile [patch]
func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateProfileRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, apperr.Invalid("body", "invalid json"))
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Update(r.Context(), claims.UserID, UpdateInput{
			FullName: req.FullName,
			Phone:    req.Phone,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func toProfileResponse(p Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		FullName:  p.FullName,
		Phone:     p.Phone,
		Email:     p.Email,
		MaxPets:   p.MaxPets,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.PublicMessage(err)})
}

// writeJSON está duplicado a propósito en cada módulo de dominio.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
