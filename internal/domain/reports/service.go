package reports

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"petguard/internal/domain/pets"
	"petguard/internal/platform/apperr"
	"petguard/internal/platform/logger"
	"petguard/internal/ports/geocoding"
)

const (
	maxFieldLen   = 200
	maxMessageLen = 2000

	defaultGeocodeTimeout = 2 * time.Second
)

// PetDirectory es lo que reports necesita de pets.
type PetDirectory interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error)
}

type Service struct {
	repo     Repository
	pets     PetDirectory
	geocoder geocoding.ReverseGeocoder
	log      logger.Logger
	now      func() time.Time

	geocodeTimeout time.Duration
}

type Options struct {
	// Geocoder es opcional; sin él se usan las coordenadas como texto.
	Geocoder       geocoding.ReverseGeocoder
	GeocodeTimeout time.Duration
	Logger         logger.Logger
}

func NewService(repo Repository, petsDir PetDirectory, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	timeout := opts.GeocodeTimeout
	if timeout <= 0 {
		timeout = defaultGeocodeTimeout
	}
	return &Service{
		repo:           repo,
		pets:           petsDir,
		geocoder:       opts.Geocoder,
		log:            log.With(map[string]any{"component": "reports"}),
		now:            time.Now,
		geocodeTimeout: timeout,
	}
}

type SubmitInput struct {
	FinderName  string
	FinderPhone string
	FinderEmail string
	Location    string
	Latitude    *float64
	Longitude   *float64
	Message     string
}

// Submit registra un reporte sin chequear dueño: el caller ya verificó
// que la mascota existe y está activa.
func (s *Service) Submit(ctx context.Context, petID string, in SubmitInput) (FoundReport, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return FoundReport{}, apperr.ErrNotFound
	}

	for _, f := range []struct {
		name  string
		v     *string
		limit int
	}{
		{"finder_name", &in.FinderName, maxFieldLen},
		{"finder_phone", &in.FinderPhone, maxFieldLen},
		{"finder_email", &in.FinderEmail, maxFieldLen},
		{"location", &in.Location, maxFieldLen},
		{"message", &in.Message, maxMessageLen},
	} {
		*f.v = strings.TrimSpace(*f.v)
		if utf8.RuneCountInString(*f.v) > f.limit {
			return FoundReport{}, apperr.Invalid(f.name, "too long")
		}
	}

	if (in.Latitude == nil) != (in.Longitude == nil) {
		return FoundReport{}, apperr.Invalid("coordinates", "latitude and longitude go together")
	}
	if in.Latitude != nil {
		if *in.Latitude < -90 || *in.Latitude > 90 {
			return FoundReport{}, apperr.Invalid("latitude", "out of range")
		}
		if *in.Longitude < -180 || *in.Longitude > 180 {
			return FoundReport{}, apperr.Invalid("longitude", "out of range")
		}
	}

	location := s.resolveLocation(ctx, in.Location, in.Latitude, in.Longitude)
	if location == "" {
		return FoundReport{}, apperr.Invalid("location", "required")
	}

	name := in.FinderName
	if name == "" {
		name = DefaultFinderName
	}

	r := FoundReport{
		ID:          uuid.NewString(),
		PetID:       petID,
		FinderName:  name,
		FinderPhone: in.FinderPhone,
		FinderEmail: in.FinderEmail,
		Location:    location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Message:     in.Message,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return FoundReport{}, err
	}
	return r, nil
}

// resolveLocation: texto libre tal cual; con coordenadas y sin texto intenta geocoding
// inverso y si falla usa "Lat: x, Lng: y"; con ambos agrega las coordenadas entre paréntesis.
func (s *Service) resolveLocation(ctx context.Context, text string, lat, lng *float64) string {
	if lat == nil || lng == nil {
		return text
	}
	coords := CoordinatesText(*lat, *lng)
	if text != "" {
		return text + " (" + coords + ")"
	}

	if s.geocoder != nil {
		gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
		defer cancel()
		place, err := s.geocoder.PlaceName(gctx, *lat, *lng)
		if err == nil && strings.TrimSpace(place) != "" {
			return strings.TrimSpace(place) + " (" + coords + ")"
		}
		if err != nil {
			s.log.Debug("reverse geocoding failed", map[string]any{"error": err})
		}
	}
	return coords
}

func CoordinatesText(lat, lng float64) string {
	return fmt.Sprintf("Lat: %.6f, Lng: %.6f", lat, lng)
}

// ListByOwner devuelve todos los reportes de las mascotas del dueño, con su resumen.
func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]OwnerReport, error) {
	owned, err := s.pets.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return []OwnerReport{}, nil
	}

	byID := make(map[string]pets.Pet, len(owned))
	ids := make([]string, 0, len(owned))
	for _, p := range owned {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	items, err := s.repo.ListByPets(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]OwnerReport, 0, len(items))
	for _, r := range items {
		p := byID[r.PetID]
		out = append(out, OwnerReport{FoundReport: r, PetName: p.Name, PetShortID: p.ShortID})
	}
	return out, nil
}

// ListByPet devuelve los reportes de una mascota del dueño.
func (s *Service) ListByPet(ctx context.Context, ownerUserID, petID string) ([]FoundReport, error) {
	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		return nil, err
	}
	if owner != ownerUserID {
		return nil, apperr.ErrNotFound
	}
	return s.repo.ListByPets(ctx, []string{petID})
}

func (s *Service) CountByOwner(ctx context.Context, ownerUserID string) (int, error) {
	owned, err := s.pets.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return 0, err
	}
	if len(owned) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(owned))
	for _, p := range owned {
		ids = append(ids, p.ID)
	}
	return s.repo.CountByPets(ctx, ids)
}
