package public

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"petguard/internal/domain/reports"
	"petguard/internal/platform/apperr"
	"petguard/internal/platform/validation"
)

// CacheControl: frescura corta y tolerancia larga; un cambio de is_active
// tiene que verse en poco tiempo.
const CacheControl = "public, s-maxage=60, stale-while-revalidate=300"

func RegisterRoutes(r chi.Router, svc *Service, limiter *ClientLimiter) {
	r.Route("/api/pet/{shortID}", func(pr chi.Router) {
		pr.Get("/", getPublicPetHandler(svc))
		pr.Post("/reports", submitReportHandler(svc, limiter))
	})
}

type ownerResponse struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// publicPetResponse es exactamente lo que ve quien escanea el tag.
type publicPetResponse struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Breed             string        `json:"breed"`
	Age               string        `json:"age"`
	MedicalConditions string        `json:"medical_conditions"`
	PhotoURL          string        `json:"photo_url"`
	Reward            string        `json:"reward"`
	Owner             ownerResponse `json:"owner"`
}

type submitReportRequest struct {
	FinderName  string   `json:"finder_name" validate:"max=200"`
	FinderPhone string   `json:"finder_phone" validate:"max=200"`
	FinderEmail string   `json:"finder_email" validate:"omitempty,email,max=200"`
	Location    string   `json:"location" validate:"max=200"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	Message     string   `json:"message" validate:"max=2000"`
}

type submitReportResponse struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// getPublicPetHandler godoc
// @Summary Página pública de la mascota
// @Description Lectura sin sesión por short id. Mascotas inactivas e ids inexistentes responden el mismo 404.
// @Tags public
// @Produce json
// @Param shortID path string true "Short id (6 caracteres A-Z0-9)"
// @Success 200 {object} publicPetResponse
// @Failure 404 {object} map[string]string "not found"
// @Router /api/pet/{shortID} [get]
func getPublicPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Lookup(r.Context(), chi.URLParam(r, "shortID"))
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Cache-Control", CacheControl)
		writeJSON(w, http.StatusOK, publicPetResponse{
			ID:                v.ID,
			Name:              v.Name,
			Breed:             v.Breed,
			Age:               v.Age,
			MedicalConditions: v.MedicalConditions,
			PhotoURL:          v.PhotoURL,
			Reward:            v.Reward,
			Owner: ownerResponse{
				FullName: v.Owner.FullName,
				Phone:    v.Owner.Phone,
				Email:    v.Owner.Email,
			},
		})
	}
}

// submitReportHandler godoc
// @Summary Reportar mascota encontrada
// @Description Alta anónima de un reporte de hallazgo. `location` es obligatorio salvo que vengan coordenadas; finder_name por defecto "Anónimo".
// @Tags public
// @Accept json
// @Produce json
// @Param shortID path string true "Short id"
// @Param payload body submitReportRequest true "Datos de quien encontró la mascota"
// @Success 201 {object} submitReportResponse
// @Failure 400 {object} map[string]string "validación"
// @Failure 404 {object} map[string]string "not found"
// @Failure 429 {object} map[string]string "too many requests"
// @Router /api/pet/{shortID}/reports [post]
func submitReportHandler(svc *Service, limiter *ClientLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(ClientKey(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			return
		}

		var req submitReportRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			writeError(w, apperr.Invalid("body", "invalid json"))
			return
		}
		if err := validation.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		rep, err := svc.SubmitReport(r.Context(), chi.URLParam(r, "shortID"), reports.SubmitInput{
			FinderName:  req.FinderName,
			FinderPhone: req.FinderPhone,
			FinderEmail: req.FinderEmail,
			Location:    req.Location,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			Message:     req.Message,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, submitReportResponse{
			ID:        rep.ID,
			Location:  rep.Location,
			Latitude:  rep.Latitude,
			Longitude: rep.Longitude,
			CreatedAt: rep.CreatedAt,
		})
	}
}

// writeError: NotFound siempre con el mismo cuerpo, sin importar la causa.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
