package capabilities

import "context"

// QuotaResolver decide cuántas mascotas puede registrar un usuario.
// La fuente por defecto es profiles.max_pets; un servicio de planes puede reemplazarla.
type QuotaResolver interface {
	MaxPets(ctx context.Context, userID string) (int, error)
}

// QuotaFunc adapta una función a QuotaResolver.
type QuotaFunc func(ctx context.Context, userID string) (int, error)

func (f QuotaFunc) MaxPets(ctx context.Context, userID string) (int, error) {
	return f(ctx, userID)
}
