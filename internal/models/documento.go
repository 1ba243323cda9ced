package models

import (
	"fmt"
	"time"
)

// Tipos de documento adjuntables a un prospecto
const (
	DocumentoCotizacion       = "cotizacion"
	DocumentoContrato         = "contrato"
	DocumentoFacturaProveedor = "factura_proveedor"
	DocumentoReservaProveedor = "reserva_proveedor"
	DocumentoPagoCliente      = "pago_cliente"
	DocumentoPagoProveedor    = "pago_proveedor"
	DocumentoOtro             = "otro"
)

// Documento es la metadata de un archivo subido; la ruta se guarda relativa
// a la raíz de uploads. Subir una "cotizacion" fuerza el estado COTIZADO.
type Documento struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	IDDocumento   *string   `gorm:"size:20;uniqueIndex" json:"idDocumento,omitempty"`
	ProspectoID   uint      `json:"prospectoId"`
	UsuarioID     uint      `json:"usuarioId"`
	NombreArchivo string    `gorm:"size:255;not null" json:"nombreArchivo"`
	TipoDocumento string    `gorm:"size:20" json:"tipoDocumento"`
	RutaArchivo   string    `gorm:"size:500;not null" json:"rutaArchivo"`
	FechaSubida   time.Time `gorm:"autoCreateTime" json:"fechaSubida"`
	Descripcion   string    `gorm:"type:text" json:"descripcion"`
}

// GenerarIDDocumento asigna el ID legible DOC- una sola vez tras el insert.
func (d *Documento) GenerarIDDocumento() string {
	if d.IDDocumento == nil {
		s := fmt.Sprintf("DOC-%s-%04d", time.Now().Format("20060102"), d.ID)
		d.IDDocumento = &s
	}
	return *d.IDDocumento
}
