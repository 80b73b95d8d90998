package reports

import (
	"time"

	"github.com/paulmach/orb"
)

// DefaultFinderName se usa cuando quien encontró la mascota no deja nombre.
const DefaultFinderName = "Anónimo"

// FoundReport lo crea alguien sin sesión que encontró la mascota.
// Es inmutable: no existe update ni delete.
type FoundReport struct {
	ID    string
	PetID string

	FinderName  string
	FinderPhone string
	FinderEmail string

	Location  string
	Latitude  *float64
	Longitude *float64
	Message   string

	CreatedAt time.Time
}

// Point devuelve la ubicación como orb.Point (lng, lat) si hay coordenadas.
func (r FoundReport) Point() (orb.Point, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*r.Longitude, *r.Latitude}, true
}

// OwnerReport es el reporte junto al resumen de la mascota, para el dueño.
type OwnerReport struct {
	FoundReport
	PetName    string
	PetShortID string
}
