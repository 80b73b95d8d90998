package web

import (
	"errors"
	"net/http"

	"petguard/internal/platform/apperr"
	"petguard/internal/ports/auth"
)

// userMessage traduce la taxonomía de errores a un texto para el formulario.
func userMessage(err error) string {
	var ve *apperr.ValidationError
	var qe *apperr.QuotaError
	switch {
	case errors.As(err, &ve):
		return "Dato inválido: " + ve.Error()
	case errors.As(err, &qe):
		return "Alcanzaste el límite de mascotas de tu plan."
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Email o contraseña incorrectos."
	case errors.Is(err, auth.ErrEmailTaken):
		return "Ya existe una cuenta con ese email."
	case errors.Is(err, apperr.ErrNotFound):
		return "No encontramos lo que buscabas."
	case errors.Is(err, apperr.ErrTransientStore):
		return "No pudimos guardar los cambios. Intentá de nuevo."
	default:
		return "Ocurrió un error inesperado. Intentá de nuevo."
	}
}

func formStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	default:
		return apperr.HTTPStatus(err)
	}
}
