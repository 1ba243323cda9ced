package session

import (
	"context"
	"errors"
	"time"
)

// TTL de la sesión; coincide con el max-age de la cookie (30 minutos).
const TTL = 30 * time.Minute

// CookieName es el nombre de la cookie HTTP-only que porta el token opaco.
const CookieName = "session_token"

var ErrSesionNoEncontrada = errors.New("sesión no encontrada o expirada")

// Store mapea tokens opacos a IDs de usuario con expiración. Las entradas se
// crean en el login, se eliminan en el logout y Redis expira el resto por TTL,
// de modo que las sesiones sobreviven reinicios del proceso.
type Store interface {
	Crear(ctx context.Context, token string, usuarioID uint) error
	Obtener(ctx context.Context, token string) (uint, error)
	Eliminar(ctx context.Context, token string) error
}
