package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore guarda las sesiones como claves session:{token} → usuarioID.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func clave(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (s *RedisStore) Crear(ctx context.Context, token string, usuarioID uint) error {
	return s.client.Set(ctx, clave(token), usuarioID, TTL).Err()
}

func (s *RedisStore) Obtener(ctx context.Context, token string) (uint, error) {
	val, err := s.client.Get(ctx, clave(token)).Result()
	if err == redis.Nil {
		return 0, ErrSesionNoEncontrada
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, ErrSesionNoEncontrada
	}
	// Cada lectura renueva la vigencia: la sesión expira por inactividad,
	// no por edad absoluta.
	if err := s.client.Expire(ctx, clave(token), TTL).Err(); err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (s *RedisStore) Eliminar(ctx context.Context, token string) error {
	return s.client.Del(ctx, clave(token)).Err()
}
