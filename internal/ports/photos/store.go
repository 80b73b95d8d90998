package photos

import (
	"context"
	"io"
)

// Store guarda los bytes de las fotos de mascotas. La key sigue la convención
// {owner_id}/{pet_id}-{timestamp}.{ext}.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (publicURL string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
