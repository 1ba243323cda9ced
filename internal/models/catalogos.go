package models

import (
	"strings"
	"time"
)

// Destino es una entrada del catálogo normalizado de destinos. Prospecto
// conserva además el texto libre por compatibilidad.
type Destino struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Nombre        string    `gorm:"size:100;uniqueIndex;not null" json:"nombre"`
	Pais          string    `gorm:"size:100" json:"pais"`
	Continente    string    `gorm:"size:50" json:"continente"`
	Activo        int       `gorm:"default:1" json:"activo"`
	FechaCreacion time.Time `gorm:"autoCreateTime" json:"fechaCreacion"`
}

// NormalizarNombreDestino lleva el nombre a mayúsculas sin espacios extras.
func NormalizarNombreDestino(nombre string) string {
	return strings.ToUpper(strings.TrimSpace(nombre))
}

// MedioIngreso cataloga por dónde llegó el prospecto (redes, referido, etc).
type MedioIngreso struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Nombre string `gorm:"size:50;uniqueIndex;not null" json:"nombre"`
	Activo int    `gorm:"default:1" json:"activo"`
}
