// Package blob guarda las fotos de mascotas en un bucket de gocloud.dev
// (mem://, file://, o cualquier driver registrado).
package blob

import (
	"context"
	"io"
	"strings"

	gcblob "gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"petguard/internal/platform/apperr"
)

// ServePrefix es la ruta desde la que el server sirve el bucket cuando no hay CDN.
const ServePrefix = "/photos/"

type Store struct {
	bucket        *gcblob.Bucket
	publicBaseURL string
}

// Open abre el bucket por URL. Con publicBaseURL vacío las URLs públicas
// apuntan a ServePrefix.
func Open(ctx context.Context, bucketURL, publicBaseURL string) (*Store, error) {
	b, err := gcblob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, apperr.Wrapf(err, "open bucket %q", bucketURL)
	}
	return New(b, publicBaseURL), nil
}

func New(b *gcblob.Bucket, publicBaseURL string) *Store {
	return &Store{bucket: b, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	err := s.bucket.WriteAll(ctx, key, data, &gcblob.WriterOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", apperr.Wrapf(err, "write %s", key)
	}
	return s.URL(key), nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", apperr.ErrNotFound
		}
		return nil, "", apperr.Transient(err, "read photo")
	}
	return r, r.ContentType(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return apperr.Wrapf(err, "delete %s", key)
	}
	return nil
}

// URL arma la URL pública de una key.
func (s *Store) URL(key string) string {
	if s.publicBaseURL == "" {
		return ServePrefix + key
	}
	return s.publicBaseURL + "/" + key
}

func (s *Store) Close() error {
	return s.bucket.Close()
}
