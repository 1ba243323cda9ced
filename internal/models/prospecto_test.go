package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerarIDsUnaSolaVez(t *testing.T) {
	p := Prospecto{ID: 42}
	hoy := time.Now().Format("20060102")

	assert.Equal(t, fmt.Sprintf("CL-%s-0042", hoy), p.GenerarIDCliente())
	assert.Equal(t, fmt.Sprintf("SOL-%s-0042", hoy), p.GenerarIDSolicitud())

	// Nunca se regeneran una vez asignados.
	p.ID = 99
	assert.Equal(t, fmt.Sprintf("CL-%s-0042", hoy), p.GenerarIDCliente())
	assert.Equal(t, fmt.Sprintf("SOL-%s-0042", hoy), p.GenerarIDSolicitud())
}

func TestVerificarDatosCompletos(t *testing.T) {
	casos := []struct {
		nombre   string
		p        Prospecto
		completo bool
	}{
		{"solo teléfono", Prospecto{Telefono: "300", PasajerosAdultos: 1}, false},
		{"con email", Prospecto{Telefono: "300", PasajerosAdultos: 1, CorreoElectronico: "a@b.co"}, true},
		{"con destino", Prospecto{Telefono: "300", PasajerosAdultos: 1, Destino: "CANCUN"}, true},
		{"con origen", Prospecto{Telefono: "300", PasajerosAdultos: 1, CiudadOrigen: "BOGOTA"}, true},
		{"pasajeros sobre el default", Prospecto{Telefono: "300", PasajerosAdultos: 2}, true},
		{"con niños", Prospecto{Telefono: "300", PasajerosAdultos: 1, PasajerosNinos: 1}, true},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			assert.Equal(t, c.completo, c.p.VerificarDatosCompletos())
			assert.Equal(t, c.completo, c.p.TieneDatosCompletos)
		})
	}

	conFecha := Prospecto{Telefono: "300", PasajerosAdultos: 1}
	ida := time.Now().AddDate(0, 1, 0)
	conFecha.FechaIda = &ida
	assert.True(t, conFecha.VerificarDatosCompletos())
}

func TestIndiceEstado(t *testing.T) {
	assert.Equal(t, 0, IndiceEstado(EstadoNuevo))
	assert.Equal(t, 1, IndiceEstado(EstadoEnSeguimiento))
	assert.Equal(t, 2, IndiceEstado(EstadoCotizado))
	// Ganado y cerrado_perdido comparten posición en el embudo.
	assert.Equal(t, 3, IndiceEstado(EstadoGanado))
	assert.Equal(t, 3, IndiceEstado(EstadoCerradoPerdido))
	assert.Equal(t, -1, IndiceEstado(EstadoVentaCancelada))
	assert.Equal(t, -1, IndiceEstado(EstadoEliminado))
	assert.Equal(t, -1, IndiceEstado(""))
}

func TestTelefonoWhatsapp(t *testing.T) {
	p := Prospecto{Telefono: "300 123-4567", IndicativoTelefono: "57"}
	assert.Equal(t, "573001234567", p.TelefonoWhatsapp(true))
	assert.Equal(t, "https://wa.me/573001234567", p.LinkWhatsapp(true))

	sinIndicativo := Prospecto{Telefono: "3001234567"}
	assert.Equal(t, "573001234567", sinIndicativo.TelefonoWhatsapp(true))

	sinSecundario := Prospecto{Telefono: "3001234567"}
	assert.Equal(t, "", sinSecundario.TelefonoWhatsapp(false))
	assert.Equal(t, "#", sinSecundario.LinkWhatsapp(false))
}
