package models

import (
	"fmt"
	"time"
)

// Tipos de interacción registrados sobre un prospecto
const (
	InteraccionGeneral   = "general"
	InteraccionSistema   = "sistema"
	InteraccionDocumento = "documento"
)

// Interaccion es la bitácora append-only de acciones sobre un prospecto.
type Interaccion struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProspectoID     *uint     `json:"prospectoId,omitempty"`
	UsuarioID       uint      `json:"usuarioId"`
	TipoInteraccion string    `gorm:"size:20" json:"tipoInteraccion"`
	Descripcion     string    `gorm:"type:text;not null" json:"descripcion"`
	FechaCreacion   time.Time `gorm:"autoCreateTime" json:"fechaCreacion"`
	EstadoAnterior  string    `gorm:"size:20" json:"estadoAnterior"`
	EstadoNuevo     string    `gorm:"size:20" json:"estadoNuevo"`
}

// HistorialEstado registra cada transición de estado, independiente de la
// bitácora de interacciones, para reportes por ventana de tiempo.
type HistorialEstado struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProspectoID    uint      `json:"prospectoId"`
	EstadoAnterior string    `gorm:"size:20" json:"estadoAnterior"`
	EstadoNuevo    string    `gorm:"size:20" json:"estadoNuevo"`
	UsuarioID      uint      `json:"usuarioId"`
	FechaCambio    time.Time `gorm:"autoCreateTime" json:"fechaCambio"`
	Comentario     string    `gorm:"type:text" json:"comentario"`
}

// EstadisticaCotizacion es una fila por evento de cotización; un prospecto
// puede cotizarse varias veces y todas las filas se conservan.
type EstadisticaCotizacion struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	IDCotizacion    *string   `gorm:"size:20;uniqueIndex" json:"idCotizacion,omitempty"`
	AgenteID        *uint     `json:"agenteId,omitempty"`
	ProspectoID     uint      `json:"prospectoId"`
	FechaCotizacion time.Time `gorm:"not null" json:"fechaCotizacion"`
	FechaRegistro   time.Time `gorm:"autoCreateTime" json:"fechaRegistro"`
}

// GenerarIDCotizacion asigna el ID legible COT- una sola vez tras el insert.
func (e *EstadisticaCotizacion) GenerarIDCotizacion() string {
	if e.IDCotizacion == nil {
		s := fmt.Sprintf("COT-%s-%04d", time.Now().Format("20060102"), e.ID)
		e.IDCotizacion = &s
	}
	return *e.IDCotizacion
}
