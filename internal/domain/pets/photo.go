package pets

import (
	"context"
	"errors"
	"fmt"

	"petguard/internal/media"
	"petguard/internal/platform/apperr"
)

// PhotoKey arma la key del objeto: {owner}/{pet}-{unix_millis}.{ext}.
func PhotoKey(ownerUserID, petID string, unixMillis int64, ext string) string {
	return fmt.Sprintf("%s/%s-%d.%s", ownerUserID, petID, unixMillis, ext)
}

// ValidatePhoto aplica las mismas reglas que SetPhoto sin tocar store ni bucket.
func (s *Service) ValidatePhoto(data []byte) error {
	_, err := media.Validate(data, s.photoRules)
	return err
}

// SetPhoto valida la imagen, la optimiza (best effort), la sube y actualiza photo_url.
func (s *Service) SetPhoto(ctx context.Context, ownerUserID, petID string, data []byte) (Pet, error) {
	if s.photos == nil {
		return Pet{}, errors.New("pets: photo store not configured")
	}

	p, err := s.owned(ctx, ownerUserID, petID)
	if err != nil {
		return Pet{}, err
	}

	info, err := media.Validate(data, s.photoRules)
	if err != nil {
		return Pet{}, err
	}

	if s.optimize {
		out, outInfo, err := media.Optimize(data, info, s.optimizeOpts)
		if err != nil {
			s.log.Warn("photo optimization failed, uploading original", map[string]any{
				"pet_id": p.ID,
				"error":  err,
			})
		} else {
			data, info = out, outInfo
		}
	}

	now := s.now().UTC()
	key := PhotoKey(p.OwnerUserID, p.ID, now.UnixMilli(), info.Format.Ext())
	url, err := s.photos.Put(ctx, key, info.Format.ContentType(), data)
	if err != nil {
		return Pet{}, apperr.Transient(err, "upload photo")
	}

	p.PhotoURL = url
	p.UpdatedAt = now
	if err := s.repo.Update(ctx, p); err != nil {
		if delErr := s.photos.Delete(ctx, key); delErr != nil {
			s.log.Warn("orphan photo left in bucket", map[string]any{"key": key, "error": delErr})
		}
		return Pet{}, err
	}
	return p, nil
}
