package profiles

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"petguard/internal/platform/apperr"
	"petguard/internal/ports/auth"
)

const (
	maxNameLen  = 120
	maxPhoneLen = 40
)

type Service struct {
	repo Repository
	now  func() time.Time

	defaultMaxPets int
	// ensureOnRead crea el perfil por defecto en la primera lectura
	// (backend hospedado: el perfil lo crearía un trigger externo).
	ensureOnRead bool
}

type Options struct {
	DefaultMaxPets int
	EnsureOnRead   bool
}

func NewService(repo Repository, opts Options) *Service {
	max := opts.DefaultMaxPets
	if max <= 0 {
		max = DefaultMaxPets
	}
	return &Service{
		repo:           repo,
		now:            time.Now,
		defaultMaxPets: max,
		ensureOnRead:   opts.EnsureOnRead,
	}
}

// Provision crea el perfil de una cuenta nueva. Si ya existe no es error.
func (s *Service) Provision(ctx context.Context, userID, email string, in auth.SignUpInput) error {
	_, err := s.create(ctx, userID, email, in.FullName, in.Phone)
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	return err
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	return s.GetOrCreate(ctx, userID, "")
}

// GetOrCreate es Get con el email de la sesión para el perfil lazy.
func (s *Service) GetOrCreate(ctx context.Context, userID, email string) (Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile{}, apperr.Invalid("user_id", "required")
	}

	p, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) || !s.ensureOnRead {
		return Profile{}, err
	}

	p, err = s.create(ctx, userID, email, "", "")
	if errors.Is(err, ErrAlreadyExists) {
		// otra request lo creó primero
		return s.repo.GetByUserID(ctx, userID)
	}
	return p, err
}

// MaxPets implementa capabilities.QuotaResolver leyendo profiles.max_pets.
func (s *Service) MaxPets(ctx context.Context, userID string) (int, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if p.MaxPets <= 0 {
		return s.defaultMaxPets, nil
	}
	return p.MaxPets, nil
}

type UpdateInput struct {
	// nil = no tocar
	FullName *string
	Phone    *string
}

func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	if in.FullName != nil {
		v := strings.TrimSpace(*in.FullName)
		if utf8.RuneCountInString(v) > maxNameLen {
			return Profile{}, apperr.Invalid("full_name", "too long")
		}
		p.FullName = v
	}
	if in.Phone != nil {
		v := strings.TrimSpace(*in.Phone)
		if utf8.RuneCountInString(v) > maxPhoneLen {
			return Profile{}, apperr.Invalid("phone", "too long")
		}
		p.Phone = v
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) create(ctx context.Context, userID, email, fullName, phone string) (Profile, error) {
	now := s.now().UTC()
	p := Profile{
		ID:        uuid.NewString(),
		UserID:    strings.TrimSpace(userID),
		FullName:  strings.TrimSpace(fullName),
		Phone:     strings.TrimSpace(phone),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		MaxPets:   s.defaultMaxPets,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.UserID == "" {
		return Profile{}, apperr.Invalid("user_id", "required")
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
