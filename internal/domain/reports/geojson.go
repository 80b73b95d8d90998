package reports

import (
	"context"
	"time"

	"github.com/paulmach/orb/geojson"
)

// GeoJSON arma un FeatureCollection con los reportes del dueño que traen coordenadas.
func (s *Service) GeoJSON(ctx context.Context, ownerUserID string) (*geojson.FeatureCollection, error) {
	items, err := s.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range items {
		pt, ok := r.Point()
		if !ok {
			continue
		}
		f := geojson.NewFeature(pt)
		f.ID = r.ID
		f.Properties["pet_id"] = r.PetID
		f.Properties["pet_name"] = r.PetName
		f.Properties["short_id"] = r.PetShortID
		f.Properties["finder_name"] = r.FinderName
		f.Properties["location"] = r.Location
		f.Properties["created_at"] = r.CreatedAt.Format(time.RFC3339)
		fc.Append(f)
	}
	return fc, nil
}
