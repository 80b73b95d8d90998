package pets

import (
	"context"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRConfig define el PNG del tag imprimible.
type QRConfig struct {
	Size  int
	Level string // L, M, Q, H
}

func (c QRConfig) withDefaults() QRConfig {
	if c.Size <= 0 {
		c.Size = 256
	}
	if c.Level == "" {
		c.Level = "M"
	}
	return c
}

func (c QRConfig) recoveryLevel() qrcode.RecoveryLevel {
	switch strings.ToUpper(c.Level) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// TagQR genera el PNG con la URL pública de la mascota.
func (s *Service) TagQR(ctx context.Context, ownerUserID, petID string) ([]byte, Pet, error) {
	p, err := s.owned(ctx, ownerUserID, petID)
	if err != nil {
		return nil, Pet{}, err
	}
	png, err := qrcode.Encode(s.PublicURL(p), s.qr.recoveryLevel(), s.qr.Size)
	if err != nil {
		return nil, Pet{}, err
	}
	return png, p, nil
}
