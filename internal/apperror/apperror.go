package apperror

import (
	"errors"
	"fmt"
)

// Errores centinela de la aplicación. Los handlers los traducen a redirect
// con mensaje (formularios) o a código HTTP (endpoints de API).
var (
	ErrNoEncontrado  = errors.New("recurso no encontrado")
	ErrNoAutenticado = errors.New("no autenticado")
	ErrSinPermisos   = errors.New("no tiene permisos para esta acción")
	ErrValidacion    = errors.New("datos inválidos")
	ErrDuplicado     = errors.New("el recurso ya existe")
	ErrTransicion    = errors.New("transición de estado no permitida")
	ErrInterno       = errors.New("error interno")
)

// Validacion envuelve ErrValidacion con el detalle que verá el usuario.
func Validacion(formato string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidacion, fmt.Sprintf(formato, args...))
}

// Transicion envuelve ErrTransicion con el motivo del rechazo.
func Transicion(formato string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransicion, fmt.Sprintf(formato, args...))
}

// Mensaje devuelve el texto del error, o un texto genérico si es nil.
func Mensaje(err error, generico string) string {
	if err != nil {
		return err.Error()
	}
	return generico
}
