package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizarNumero(t *testing.T) {
	assert.Equal(t, "3001234567", NormalizarNumero("300 123-4567"))
	assert.Equal(t, "573001234567", NormalizarNumero("+57 (300) 123 4567"))
	assert.Equal(t, "", NormalizarNumero("sin dígitos"))
}

func TestNormalizarMayusculas(t *testing.T) {
	assert.Equal(t, "CANCUN", NormalizarMayusculas("  cancun "))
	assert.Equal(t, "", NormalizarMayusculas("   "))
}

func TestValidarEmail(t *testing.T) {
	assert.True(t, ValidarEmail("agente@travelhouse.com"))
	assert.True(t, ValidarEmail(" agente@travelhouse.com "))
	assert.False(t, ValidarEmail("agente@"))
	assert.False(t, ValidarEmail("sin-arroba.com"))
	assert.False(t, ValidarEmail(""))
}

func TestIndicativoValido(t *testing.T) {
	assert.True(t, IndicativoValido("57"))
	assert.True(t, IndicativoValido("1"))
	assert.True(t, IndicativoValido("7840"))
	assert.False(t, IndicativoValido(""))
	assert.False(t, IndicativoValido("57890"))
	assert.False(t, IndicativoValido("5a"))
	assert.False(t, IndicativoValido("+57"))
}

func TestPasswordHashYVerificacion(t *testing.T) {
	hash, err := HashPassword("secreta123")
	require.NoError(t, err)

	assert.True(t, VerificarPassword(hash, "secreta123"))
	assert.False(t, VerificarPassword(hash, "otra"))
}

func TestGenerarPasswordAleatoria(t *testing.T) {
	p1, err := GenerarPasswordAleatoria(16)
	require.NoError(t, err)
	p2, err := GenerarPasswordAleatoria(16)
	require.NoError(t, err)

	assert.Len(t, p1, 16)
	assert.NotEqual(t, p1, p2)
}
