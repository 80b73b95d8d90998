package reports

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"petguard/internal/middleware"
	"petguard/internal/platform/apperr"
)

// RegisterRoutes expone las lecturas del dueño. El alta de reportes es pública
// y vive en el endpoint público.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/pets/{petID}/reports", listPetReportsHandler(svc))
	r.Get("/reports", listReportsHandler(svc))
	r.Get("/reports.geojson", reportsGeoJSONHandler(svc))
}

// reportResponse es un reporte de hallazgo visto por el dueño.
type reportResponse struct {
	ID          string    `json:"id"`
	PetID       string    `json:"pet_id"`
	PetName     string    `json:"pet_name,omitempty"`
	PetShortID  string    `json:"pet_short_id,omitempty"`
	FinderName  string    `json:"finder_name"`
	FinderPhone *string   `json:"finder_phone"`
	FinderEmail *string   `json:"finder_email"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Message     *string   `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// listReportsHandler godoc
// @Summary Reportes de hallazgo del dueño
// @Description Todos los reportes de las mascotas del usuario autenticado, más nuevos primero.
// @Tags reports
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {array} reportResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /reports [get]
func listReportsHandler(svc *Service) http.HandlerFunc {
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
		out := make([]reportResponse, 0, len(items))
		for _, it := range items {
			resp := toReportResponse(it.FoundReport)
			resp.PetName = it.PetName
			resp.PetShortID = it.PetShortID
			out = append(out, resp)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listPetReportsHandler godoc
// @Summary Reportes de una mascota
// @Tags reports
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} reportResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Router /pets/{petID}/reports [get]
func listPetReportsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		items, err := svc.ListByPet(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]reportResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toReportResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// reportsGeoJSONHandler godoc
// @Summary Mapa de reportes (GeoJSON)
// @Description FeatureCollection con los reportes que traen coordenadas.
// @Tags reports
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /reports.geojson [get]
func reportsGeoJSONHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthorized)
			return
		}

		fc, err := svc.GeoJSON(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		b, err := fc.MarshalJSON()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func toReportResponse(r FoundReport) reportResponse {
	return reportResponse{
		ID:          r.ID,
		PetID:       r.PetID,
		FinderName:  r.FinderName,
		FinderPhone: nullable(r.FinderPhone),
		FinderEmail: nullable(r.FinderEmail),
		Location:    r.Location,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Message:     nullable(r.Message),
		CreatedAt:   r.CreatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
