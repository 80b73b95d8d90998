package plansfeatures

import (
	"context"

	"petguard/internal/platform/logger"
	"petguard/internal/ports/capabilities"
)

// Resolver implementa capabilities.QuotaResolver consultando el servicio de planes.
// Si no está configurado, falla o no trae cuota, usa fallback (profiles.max_pets).
type Resolver struct {
	client   *Client
	fallback capabilities.QuotaResolver
	log      logger.Logger
}

func NewResolver(client *Client, fallback capabilities.QuotaResolver, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{client: client, fallback: fallback, log: log}
}

func (r *Resolver) MaxPets(ctx context.Context, userID string) (int, error) {
	if r.client.IsConfigured() {
		limits, err := r.client.GetLimits(ctx, userID)
		if err == nil && limits.MaxPets > 0 {
			return limits.MaxPets, nil
		}
		if err != nil {
			r.log.Warn("plans service unavailable, using profile quota", map[string]any{
				"user_id": userID,
				"error":   err,
			})
		}
	}
	if r.fallback == nil {
		return 0, ErrPlansNotConfigured
	}
	return r.fallback.MaxPets(ctx, userID)
}
