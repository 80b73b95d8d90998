package reports

import "context"

// Repository no expone Update ni Delete: los reportes son inmutables.
type Repository interface {
	Create(ctx context.Context, r FoundReport) error
	// ListByPets devuelve los reportes de esas mascotas, más nuevos primero.
	ListByPets(ctx context.Context, petIDs []string) ([]FoundReport, error)
	CountByPets(ctx context.Context, petIDs []string) (int, error)
}
