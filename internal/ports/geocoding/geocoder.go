package geocoding

import "context"

// ReverseGeocoder traduce coordenadas a un nombre de lugar legible.
// Es best-effort: quien llama debe tolerar errores y degradar a texto de coordenadas.
type ReverseGeocoder interface {
	PlaceName(ctx context.Context, lat, lng float64) (string, error)
}
