package utils

import (
	"regexp"
	"strings"
)

var soloDigitos = regexp.MustCompile(`[^0-9]`)

var patronEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizarMayusculas convierte texto a mayúsculas sin espacios extras.
// Devuelve cadena vacía si el texto está vacío.
func NormalizarMayusculas(texto string) string {
	return strings.ToUpper(strings.TrimSpace(texto))
}

// NormalizarNumero deja solo los dígitos de un número telefónico o documento.
func NormalizarNumero(numero string) string {
	return soloDigitos.ReplaceAllString(numero, "")
}

// NormalizarEmail lleva el correo a minúsculas sin espacios.
func NormalizarEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidarEmail verifica el formato básico de un correo.
func ValidarEmail(email string) bool {
	return patronEmail.MatchString(strings.TrimSpace(email))
}

// IndicativoValido acepta solo dígitos, máximo 4.
func IndicativoValido(indicativo string) bool {
	if indicativo == "" || len(indicativo) > 4 {
		return false
	}
	return soloDigitos.ReplaceAllString(indicativo, "") == indicativo
}
