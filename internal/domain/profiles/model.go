package profiles

import "time"

const DefaultMaxPets = 3

// Profile es el perfil de cuenta: uno por usuario.
type Profile struct {
	ID     string
	UserID string

	FullName string
	Phone    string
	Email    string

	// MaxPets es la cuota de mascotas del plan.
	MaxPets int

	CreatedAt time.Time
	UpdatedAt time.Time
}
