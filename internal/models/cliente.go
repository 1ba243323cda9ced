package models

import (
	"fmt"
	"strings"
	"time"
)

// Cliente es la identidad canónica de un contacto, separada de las
// solicitudes individuales. Un Prospecto puede referenciarla vía ClienteID.
type Cliente struct {
	ID                           uint       `gorm:"primaryKey" json:"id"`
	IDCliente                    *string    `gorm:"size:20;uniqueIndex" json:"idCliente,omitempty"`
	Nombre                       string     `gorm:"size:100" json:"nombre"`
	Apellido                     string     `gorm:"size:100" json:"apellido"`
	CorreoElectronico            string     `gorm:"size:100" json:"correoElectronico"`
	Telefono                     string     `gorm:"size:20;not null" json:"telefono"`
	IndicativoTelefono           string     `gorm:"size:10;default:57" json:"indicativoTelefono"`
	TelefonoSecundario           string     `gorm:"size:20" json:"telefonoSecundario"`
	IndicativoTelefonoSecundario string     `gorm:"size:10;default:57" json:"indicativoTelefonoSecundario"`
	FechaNacimiento              *time.Time `json:"fechaNacimiento,omitempty"`
	NumeroIdentificacion         string     `gorm:"size:50" json:"numeroIdentificacion"`
	Direccion                    string     `gorm:"size:255" json:"direccion"`
	AgenteAsignadoID             *uint      `json:"agenteAsignadoId,omitempty"`
	FechaRegistro                time.Time  `gorm:"autoCreateTime" json:"fechaRegistro"`
	FechaEliminacion             *time.Time `json:"fechaEliminacion,omitempty"`
}

// GenerarIDCliente asigna el ID legible una sola vez tras el insert.
func (c *Cliente) GenerarIDCliente() string {
	if c.IDCliente == nil {
		s := fmt.Sprintf("CL-%s-%04d", time.Now().Format("20060102"), c.ID)
		c.IDCliente = &s
	}
	return *c.IDCliente
}

// TelefonoWhatsapp arma el número completo para enlaces wa.me.
func (c *Cliente) TelefonoWhatsapp(principal bool) string {
	indicativo, telefono := c.IndicativoTelefono, c.Telefono
	if !principal {
		indicativo, telefono = c.IndicativoTelefonoSecundario, c.TelefonoSecundario
	}
	if indicativo == "" {
		indicativo = "57"
	}
	telefono = strings.NewReplacer(" ", "", "-", "").Replace(telefono)
	if telefono == "" {
		return ""
	}
	return indicativo + telefono
}
