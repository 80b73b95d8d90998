package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petguard/internal/domain/reports"
)

// reportRepo solo agrega: no hay update ni delete.
type reportRepo struct {
	mu    sync.RWMutex
	byID  map[string]reports.FoundReport
	order []string
}

func NewReportRepo() reports.Repository {
	return &reportRepo{
		byID: make(map[string]reports.FoundReport),
	}
}

func (r *reportRepo) Create(ctx context.Context, rep reports.FoundReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rep.ID == "" {
		return errors.New("report id required")
	}
	if _, exists := r.byID[rep.ID]; exists {
		return errors.New("report already exists")
	}

	// copia de las coordenadas: el registro no puede mutar por alias
	if rep.Latitude != nil {
		lat := *rep.Latitude
		rep.Latitude = &lat
	}
	if rep.Longitude != nil {
		lng := *rep.Longitude
		rep.Longitude = &lng
	}

	r.byID[rep.ID] = rep
	r.order = append(r.order, rep.ID)
	return nil
}

func (r *reportRepo) ListByPets(ctx context.Context, petIDs []string) ([]reports.FoundReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(petIDs))
	for _, id := range petIDs {
		want[id] = struct{}{}
	}

	out := make([]reports.FoundReport, 0)
	// recorrido inverso: a igual created_at gana el último insertado
	for i := len(r.order) - 1; i >= 0; i-- {
		rep := r.byID[r.order[i]]
		if _, ok := want[rep.PetID]; ok {
			out = append(out, rep)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *reportRepo) CountByPets(ctx context.Context, petIDs []string) (int, error) {
	items, err := r.ListByPets(ctx, petIDs)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
