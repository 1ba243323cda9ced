package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abrirStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreCrearYObtener(t *testing.T) {
	store, _ := abrirStore(t)
	ctx := context.Background()

	require.NoError(t, store.Crear(ctx, "token-abc", 42))

	usuarioID, err := store.Obtener(ctx, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, uint(42), usuarioID)
}

func TestRedisStoreTokenDesconocido(t *testing.T) {
	store, _ := abrirStore(t)

	_, err := store.Obtener(context.Background(), "no-existe")
	assert.ErrorIs(t, err, ErrSesionNoEncontrada)
}

func TestRedisStoreEliminar(t *testing.T) {
	store, _ := abrirStore(t)
	ctx := context.Background()

	require.NoError(t, store.Crear(ctx, "token-xyz", 7))
	require.NoError(t, store.Eliminar(ctx, "token-xyz"))

	_, err := store.Obtener(ctx, "token-xyz")
	assert.ErrorIs(t, err, ErrSesionNoEncontrada)
}

func TestRedisStoreVigenciaDeslizante(t *testing.T) {
	store, mr := abrirStore(t)
	ctx := context.Background()

	require.NoError(t, store.Crear(ctx, "token-activo", 5))

	// Tres lecturas espaciadas más allá del TTL original: cada una renueva
	// la vigencia mientras la sesión siga en uso.
	for i := 0; i < 3; i++ {
		mr.FastForward(TTL / 2)
		usuarioID, err := store.Obtener(ctx, "token-activo")
		require.NoError(t, err)
		assert.Equal(t, uint(5), usuarioID)
	}

	mr.FastForward(TTL + 1)
	_, err := store.Obtener(ctx, "token-activo")
	assert.ErrorIs(t, err, ErrSesionNoEncontrada)
}

func TestRedisStoreExpira(t *testing.T) {
	store, mr := abrirStore(t)
	ctx := context.Background()

	require.NoError(t, store.Crear(ctx, "token-ttl", 9))

	mr.FastForward(TTL + 1)

	_, err := store.Obtener(ctx, "token-ttl")
	assert.ErrorIs(t, err, ErrSesionNoEncontrada)
}
