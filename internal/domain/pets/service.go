package pets

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"petguard/internal/media"
	"petguard/internal/platform/apperr"
	"petguard/internal/platform/logger"
	"petguard/internal/platform/metrics"
	"petguard/internal/ports/capabilities"
	"petguard/internal/ports/photos"
)

// maxShortIDAttempts acota los reintentos por colisión de short id.
const maxShortIDAttempts = 8

type Service struct {
	repo   Repository
	quota  capabilities.QuotaResolver
	photos photos.Store
	log    logger.Logger
	now    func() time.Time

	newShortID func() (string, error)

	photoRules    media.Rules
	optimize      bool
	optimizeOpts  media.OptimizeOptions
	publicBaseURL string
	qr            QRConfig
}

type Options struct {
	Quota  capabilities.QuotaResolver
	Photos photos.Store
	Logger logger.Logger

	PhotoRules      media.Rules
	OptimizePhotos  bool
	OptimizeOptions media.OptimizeOptions

	// PublicBaseURL arma la URL pública del tag: {base}/pet/{shortID}.
	PublicBaseURL string
	QR            QRConfig
}

func NewService(repo Repository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:          repo,
		quota:         opts.Quota,
		photos:        opts.Photos,
		log:           log.With(map[string]any{"component": "pets"}),
		now:           time.Now,
		newShortID:    NewShortID,
		photoRules:    opts.PhotoRules,
		optimize:      opts.OptimizePhotos,
		optimizeOpts:  opts.OptimizeOptions,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/"),
		qr:            opts.QR.withDefaults(),
	}
}

const (
	maxNameLen = 80
	maxTextLen = 500
)

type CreateInput struct {
	Name              string
	Breed             string
	Age               string
	MedicalConditions string
	Reward            string
}

// Create registra una mascota respetando la cuota del dueño.
func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Pet{}, apperr.ErrUnauthorized
	}
	if err := validateFields(&in.Name, &in.Breed, &in.Age, &in.MedicalConditions, &in.Reward); err != nil {
		return Pet{}, err
	}
	if in.Name == "" {
		return Pet{}, apperr.Invalid("name", "required")
	}

	max, err := s.maxPets(ctx, ownerUserID)
	if err != nil {
		return Pet{}, err
	}

	now := s.now().UTC()
	p := Pet{
		ID:                uuid.NewString(),
		OwnerUserID:       ownerUserID,
		Name:              in.Name,
		Breed:             in.Breed,
		Age:               in.Age,
		MedicalConditions: in.MedicalConditions,
		Reward:            in.Reward,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for attempt := 1; ; attempt++ {
		p.ShortID, err = s.newShortID()
		if err != nil {
			return Pet{}, err
		}

		err = s.repo.CreateWithinQuota(ctx, p, max)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, apperr.ErrQuotaExceeded) {
			metrics.QuotaRejections.Inc()
			return Pet{}, err
		}
		if !errors.Is(err, ErrShortIDTaken) {
			return Pet{}, err
		}
		if attempt >= maxShortIDAttempts {
			s.log.Error("short id space exhausted", map[string]any{"attempts": attempt})
			return Pet{}, apperr.Transient(err, "generate short id")
		}
		s.log.Debug("short id collision, retrying", map[string]any{"attempt": attempt})
	}
}

// CheckQuota devuelve *apperr.QuotaError si el dueño ya llegó al máximo.
// Lo usa la vista de alta para mostrar "límite alcanzado" antes del formulario.
func (s *Service) CheckQuota(ctx context.Context, ownerUserID string) (current, max int, err error) {
	max, err = s.maxPets(ctx, ownerUserID)
	if err != nil {
		return 0, 0, err
	}
	current, err = s.repo.CountByOwner(ctx, ownerUserID)
	if err != nil {
		return 0, 0, err
	}
	if current >= max {
		return current, max, &apperr.QuotaError{Current: current, Max: max}
	}
	return current, max, nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name              *string
	Breed             *string
	Age               *string
	MedicalConditions *string
	Reward            *string
	IsActive          *bool
}

// Update aplica el PATCH del dueño. El short id no se toca nunca.
func (s *Service) Update(ctx context.Context, ownerUserID, petID string, in UpdateInput) (Pet, error) {
	p, err := s.owned(ctx, ownerUserID, petID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		v := *in.Name
		if err := validateFields(&v); err != nil {
			return Pet{}, err
		}
		if v == "" {
			return Pet{}, apperr.Invalid("name", "required")
		}
		p.Name = v
	}
	for _, f := range []struct {
		in  *string
		dst *string
	}{
		{in.Breed, &p.Breed},
		{in.Age, &p.Age},
		{in.MedicalConditions, &p.MedicalConditions},
		{in.Reward, &p.Reward},
	} {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if utf8.RuneCountInString(v) > maxTextLen {
			return Pet{}, apperr.Invalid("text", "too long")
		}
		*f.dst = v
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Get devuelve una mascota del dueño.
func (s *Service) Get(ctx context.Context, ownerUserID, petID string) (Pet, error) {
	return s.owned(ctx, ownerUserID, petID)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

func (s *Service) CountByOwner(ctx context.Context, ownerUserID string) (int, error) {
	return s.repo.CountByOwner(ctx, ownerUserID)
}

// GetActiveByShortID es la única lectura sin scope de dueño (ruta pública).
// Inactiva o inexistente => apperr.ErrNotFound, sin distinción.
func (s *Service) GetActiveByShortID(ctx context.Context, shortID string) (Pet, error) {
	id := NormalizeShortID(shortID)
	if id == "" {
		return Pet{}, apperr.ErrNotFound
	}
	p, err := s.repo.GetByShortID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if !p.IsActive {
		return Pet{}, apperr.ErrNotFound
	}
	return p, nil
}

// PublicURL es la URL que se graba en el tag.
func (s *Service) PublicURL(p Pet) string {
	return s.publicBaseURL + "/pet/" + p.ShortID
}

func (s *Service) maxPets(ctx context.Context, ownerUserID string) (int, error) {
	if s.quota == nil {
		return 0, errors.New("pets: quota resolver not configured")
	}
	max, err := s.quota.MaxPets(ctx, ownerUserID)
	if err != nil {
		return 0, err
	}
	return max, nil
}

// validateFields recorta espacios y valida largos. El primero es el nombre.
func validateFields(fields ...*string) error {
	for i, f := range fields {
		*f = strings.TrimSpace(*f)
		limit := maxTextLen
		name := "text"
		if i == 0 {
			limit = maxNameLen
			name = "name"
		}
		if utf8.RuneCountInString(*f) > limit {
			return apperr.Invalid(name, "too long")
		}
	}
	return nil
}
