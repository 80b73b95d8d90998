package pets

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"petguard/internal/middleware"
	"petguard/internal/platform/apperr"
	"petguard/internal/platform/validation"
)

// maxUploadBytes deja margen sobre el límite de media para el overhead multipart.
const maxUploadBytes = 6 << 20

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Post("/{petID}/photo", uploadPhotoHandler(svc))
		pr.Get("/{petID}/tag.png", tagQRHandler(svc))
	})
}

type createPetRequest struct {
	Name              string `json:"name" validate:"notblank,max=80"`
	Breed             string `json:"breed" validate:"max=500"`
	Age               string `json:"age" validate:"max=500"`
	MedicalConditions string `json:"medical_conditions" validate:"max=500"`
	Reward            string `json:"reward" validate:"max=500"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar. short_id no es editable.
	Name              *string `json:"name" validate:"omitempty,notblank,max=80"`
	Breed             *string `json:"breed" validate:"omitempty,max=500"`
	Age               *string `json:"age" validate:"omitempty,max=500"`
	MedicalConditions *string `json:"medical_conditions" validate:"omitempty,max=500"`
	Reward            *string `json:"reward" validate:"omitempty,max=500"`
	IsActive          *bool   `json:"is_active"`
}

type petResponse struct {
	ID                string    `json:"id"`
	ShortID           string    `json:"short_id"`
	OwnerUserID       string    `json:"owner_user_id"`
	Name              string    `json:"name"`
	Breed             string    `json:"breed"`
	Age               string    `json:"age"`
	MedicalConditions string    `json:"medical_conditions"`
	PhotoURL          string    `json:"photo_url"`
	Reward            string    `json:"reward"`
	IsActive          bool      `json:"is_active"`
	PublicURL         string    `json:"public_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type quotaErrorResponse struct {
	Error   string `json:"error"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description Crea una mascota del usuario autenticado y le asigna un short id público. Si el dueño ya tiene max_pets mascotas responde 409 con los contadores.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} map[string]string "invalid json / validación"
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 409 {object} quotaErrorResponse "límite de mascotas alcanzado"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Invalid("body", "invalid json"))
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:              req.Name,
			Breed:             req.Breed,
			Age:               req.Age,
			MedicalConditions: req.MedicalConditions,
			Reward:            req.Reward,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(svc, p))
	}
}

// listPetsHandler godoc
// @Summary Listar mis mascotas
// @Description Mascotas del usuario autenticado, más nuevas primero.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {array} petResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(svc, p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Ver mascota
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(svc, p))
	}
}

// updatePetHandler godoc
// @Summary Editar mascota
// @Description PATCH de la ficha. `is_active=false` oculta la página pública. El short id es inmutable.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {object} map[string]string "invalid json / validación"
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, apperr.Invalid("body", "invalid json"))
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "petID"), UpdateInput{
			Name:              req.Name,
			Breed:             req.Breed,
			Age:               req.Age,
			MedicalConditions: req.MedicalConditions,
			Reward:            req.Reward,
			IsActive:          req.IsActive,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(svc, p))
	}
}

// uploadPhotoHandler godoc
// @Summary Subir foto
// @Description Acepta multipart (campo `photo`) o el binario crudo. JPEG, PNG o WEBP, hasta 5 MB, entre 200 y 4000 px por lado.
// @Tags pets
// @Accept multipart/form-data
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param petID path string true "ID de la mascota"
// @Param photo formData file true "Imagen"
// @Success 200 {object} petResponse
// @Failure 400 {object} map[string]string "imagen inválida"
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Router /pets/{petID}/photo [post]
func uploadPhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		data, err := ReadUpload(w, r, "photo")
		if err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.SetPhoto(r.Context(), claims.UserID, chi.URLParam(r, "petID"), data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(svc, p))
	}
}

// tagQRHandler godoc
// @Summary QR del tag
// @Description PNG con la URL pública de la mascota, para imprimir o grabar junto al tag NFC.
// @Tags pets
// @Produce png
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param petID path string true "ID de la mascota"
// @Success 200 {file} file
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Router /pets/{petID}/tag.png [get]
func tagQRHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		png, _, err := svc.TagQR(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "private, max-age=300")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

// ReadUpload lee el archivo del campo multipart field, o el body crudo.
func ReadUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, uploadErr(err)
		}
		f, _, err := r.FormFile(field)
		if err != nil {
			return nil, apperr.Invalid(field, "file is required")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, uploadErr(err)
		}
		return data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, uploadErr(err)
	}
	return data, nil
}

func uploadErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Invalid("photo", "file exceeds 5 MB")
	}
	return apperr.Invalid("photo", "unreadable upload")
}

func toPetResponse(svc *Service, p Pet) petResponse {
	return petResponse{
		ID:                p.ID,
		ShortID:           p.ShortID,
		OwnerUserID:       p.OwnerUserID,
		Name:              p.Name,
		Breed:             p.Breed,
		Age:               p.Age,
		MedicalConditions: p.MedicalConditions,
		PhotoURL:          p.PhotoURL,
		Reward:            p.Reward,
		IsActive:          p.IsActive,
		PublicURL:         svc.PublicURL(p),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	var qe *apperr.QuotaError
	if errors.As(err, &qe) {
		writeJSON(w, http.StatusConflict, quotaErrorResponse{Error: qe.Error(), Current: qe.Current, Max: qe.Max})
		return
	}
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.PublicMessage(err)})
}

// writeJSON está duplicado a propósito en cada módulo de dominio.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
