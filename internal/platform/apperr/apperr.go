// Package apperr define la taxonomía de errores de PetGuard y su mapeo a HTTP.
package apperr

import (
	stderrors "errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrAuthResolution: la sesión no se pudo resolver (error o timeout). Se trata igual que "sin sesión".
	ErrAuthResolution = stderrors.New("auth resolution failure")
	ErrQuotaExceeded  = stderrors.New("quota exceeded")
	ErrValidation     = stderrors.New("validation failure")
	ErrNotFound       = stderrors.New("not found")
	ErrTransientStore = stderrors.New("transient store failure")
	ErrUnauthorized   = stderrors.New("unauthorized")
	ErrForbidden      = stderrors.New("forbidden")
)

// QuotaError lleva los contadores para la vista "límite alcanzado".
type QuotaError struct {
	Current int
	Max     int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("pet limit reached: %d/%d", e.Current, e.Max)
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

// ValidationError describe un campo inválido.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// transientError marca fallas del backend de datos conservando la causa.
type transientError struct {
	cause error
}

func (e *transientError) Error() string        { return e.cause.Error() }
func (e *transientError) Unwrap() error        { return e.cause }
func (e *transientError) Is(target error) bool { return target == ErrTransientStore }

// Transient envuelve un error de store con stack y lo marca como ErrTransientStore.
// nil => nil, y no re-envuelve errores que ya tienen una clase propia.
func Transient(err error, msg string) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &transientError{cause: pkgerrors.Wrap(err, msg)}
}

// Classified indica si err ya pertenece a la taxonomía.
func Classified(err error) bool {
	for _, target := range []error{
		ErrAuthResolution, ErrQuotaExceeded, ErrValidation, ErrNotFound,
		ErrTransientStore, ErrUnauthorized, ErrForbidden,
	} {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

func Wrap(err error, msg string) error {
	return pkgerrors.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...any) error {
	return pkgerrors.Wrapf(err, format, args...)
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// HTTPStatus traduce la taxonomía a status HTTP para los handlers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUnauthorized), stderrors.Is(err, ErrAuthResolution):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrQuotaExceeded):
		return http.StatusConflict
	case stderrors.Is(err, ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage devuelve un mensaje apto para el usuario; los internos no se filtran.
func PublicMessage(err error) string {
	var ve *ValidationError
	var qe *QuotaError
	switch {
	case stderrors.As(err, &ve):
		return ve.Error()
	case stderrors.As(err, &qe):
		return qe.Error()
	case stderrors.Is(err, ErrUnauthorized), stderrors.Is(err, ErrAuthResolution):
		return "unauthorized"
	case stderrors.Is(err, ErrForbidden):
		return "forbidden"
	case stderrors.Is(err, ErrNotFound):
		return "not found"
	case stderrors.Is(err, ErrTransientStore):
		return "temporarily unavailable, please retry"
	default:
		return "internal error"
	}
}
