// Package public es la lectura sin sesión por short id y el alta de reportes
// de hallazgo. Es el único camino que lee mascotas sin scope de dueño.
package public

import (
	"context"
	"errors"

	"petguard/internal/domain/pets"
	"petguard/internal/domain/profiles"
	"petguard/internal/domain/reports"
	"petguard/internal/platform/apperr"
	"petguard/internal/platform/logger"
	"petguard/internal/platform/metrics"
)

// DefaultOwnerName se muestra si el dueño no cargó su nombre.
const DefaultOwnerName = "Dueño"

type PetLookup interface {
	GetActiveByShortID(ctx context.Context, shortID string) (pets.Pet, error)
}

type OwnerProfiles interface {
	Get(ctx context.Context, userID string) (profiles.Profile, error)
}

type ReportSubmitter interface {
	Submit(ctx context.Context, petID string, in reports.SubmitInput) (reports.FoundReport, error)
}

type Owner struct {
	FullName string
	Phone    string
	Email    string
}

// PetView es el subconjunto de datos que se muestra a quien escanea el tag.
// No incluye cuota ni ids internos del dueño.
type PetView struct {
	ID                string
	ShortID           string
	Name              string
	Breed             string
	Age               string
	MedicalConditions string
	PhotoURL          string
	Reward            string
	Owner             Owner
}

type Service struct {
	pets     PetLookup
	profiles OwnerProfiles
	reports  ReportSubmitter
	log      logger.Logger
}

func NewService(p PetLookup, prof OwnerProfiles, rep ReportSubmitter, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{pets: p, profiles: prof, reports: rep, log: log.With(map[string]any{"component": "public"})}
}

// Lookup busca una mascota activa. Inactiva o inexistente => apperr.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, shortID string) (PetView, error) {
	p, err := s.pets.GetActiveByShortID(ctx, shortID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			metrics.PublicLookups.WithLabelValues("not_found").Inc()
			return PetView{}, apperr.ErrNotFound
		}
		metrics.PublicLookups.WithLabelValues("error").Inc()
		return PetView{}, err
	}

	owner := Owner{FullName: DefaultOwnerName}
	prof, err := s.profiles.Get(ctx, p.OwnerUserID)
	switch {
	case err == nil:
		owner.Phone = prof.Phone
		owner.Email = prof.Email
		if prof.FullName != "" {
			owner.FullName = prof.FullName
		}
	case errors.Is(err, apperr.ErrNotFound):
		// perfil ausente: se muestra la mascota con el nombre genérico
	default:
		metrics.PublicLookups.WithLabelValues("error").Inc()
		return PetView{}, err
	}

	metrics.PublicLookups.WithLabelValues("found").Inc()
	return PetView{
		ID:                p.ID,
		ShortID:           p.ShortID,
		Name:              p.Name,
		Breed:             p.Breed,
		Age:               p.Age,
		MedicalConditions: p.MedicalConditions,
		PhotoURL:          p.PhotoURL,
		Reward:            p.Reward,
		Owner:             owner,
	}, nil
}

// SubmitReport registra un reporte anónimo. Solo exige que la mascota exista y esté activa.
func (s *Service) SubmitReport(ctx context.Context, shortID string, in reports.SubmitInput) (reports.FoundReport, error) {
	p, err := s.pets.GetActiveByShortID(ctx, shortID)
	if err != nil {
		metrics.FoundReports.WithLabelValues("not_found").Inc()
		return reports.FoundReport{}, err
	}

	r, err := s.reports.Submit(ctx, p.ID, in)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			metrics.FoundReports.WithLabelValues("invalid").Inc()
		} else {
			metrics.FoundReports.WithLabelValues("error").Inc()
		}
		return reports.FoundReport{}, err
	}

	metrics.FoundReports.WithLabelValues("created").Inc()
	s.log.Info("found report submitted", map[string]any{"pet_id": p.ID, "report_id": r.ID})
	return r, nil
}
