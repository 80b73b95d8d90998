package pets

import "time"

// Pet es la ficha de la mascota. ShortID es el identificador público
// (tag NFC / QR): único entre todas las mascotas e inmutable.
// Las mascotas nunca se borran; se desactivan con IsActive.
type Pet struct {
	ID          string
	ShortID     string
	OwnerUserID string

	Name              string
	Breed             string
	Age               string // texto libre ("3 años")
	MedicalConditions string
	PhotoURL          string
	Reward            string

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
