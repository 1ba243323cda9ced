package prospecto

import (
	"net/http"
	"strconv"
	"time"

	"github.com/travelhouse/crm-prospectos/internal/apperror"
	"github.com/travelhouse/crm-prospectos/internal/utils"
)

// formularioProspecto son los campos de creación/edición ya normalizados.
type formularioProspecto struct {
	Telefono                     string
	IndicativoTelefono           string
	TelefonoSecundario           string
	IndicativoTelefonoSecundario string
	Nombre                       string
	Apellido                     string
	CorreoElectronico            string
	CiudadOrigen                 string
	Destino                      string
	FechaIda                     *time.Time
	FechaVuelta                  *time.Time
	PasajerosAdultos             int
	PasajerosNinos               int
	PasajerosInfantes            int
	MedioIngresoID               *uint
	Observaciones                string
	EmpresaSegundoTitular        string
	FechaNacimiento              *time.Time
	NumeroIdentificacion         string
	Direccion                    string
	Estado                       string
}

// parsearFormulario valida y normaliza los campos del formulario de
// prospecto. El teléfono es el único campo obligatorio.
func parsearFormulario(r *http.Request) (*formularioProspecto, error) {
	telefono := utils.NormalizarNumero(r.FormValue("telefono"))
	if telefono == "" {
		return nil, apperror.Validacion("Teléfono es requerido")
	}

	indicativo := r.FormValue("indicativo_telefono")
	if indicativo == "" {
		indicativo = "57"
	}
	if !utils.IndicativoValido(indicativo) {
		return nil, apperror.Validacion("Indicativo principal inválido. Solo números, máximo 4 dígitos")
	}

	indicativoSec := r.FormValue("indicativo_telefono_secundario")
	if indicativoSec == "" {
		indicativoSec = "57"
	}
	if !utils.IndicativoValido(indicativoSec) {
		return nil, apperror.Validacion("Indicativo secundario inválido. Solo números, máximo 4 dígitos")
	}

	f := formularioProspecto{
		Telefono:                     telefono,
		IndicativoTelefono:           indicativo,
		TelefonoSecundario:           utils.NormalizarNumero(r.FormValue("telefono_secundario")),
		IndicativoTelefonoSecundario: indicativoSec,
		Nombre:                       utils.NormalizarMayusculas(r.FormValue("nombre")),
		Apellido:                     utils.NormalizarMayusculas(r.FormValue("apellido")),
		CorreoElectronico:            utils.NormalizarEmail(r.FormValue("correo_electronico")),
		CiudadOrigen:                 utils.NormalizarMayusculas(r.FormValue("ciudad_origen")),
		Destino:                      utils.NormalizarMayusculas(r.FormValue("destino")),
		FechaIda:                     utils.ParsearFecha(r.FormValue("fecha_ida")),
		FechaVuelta:                  utils.ParsearFecha(r.FormValue("fecha_vuelta")),
		PasajerosAdultos:             formularioEntero(r, "pasajeros_adultos", 1),
		PasajerosNinos:               formularioEntero(r, "pasajeros_ninos", 0),
		PasajerosInfantes:            formularioEntero(r, "pasajeros_infantes", 0),
		Observaciones:                r.FormValue("observaciones"),
		EmpresaSegundoTitular:        utils.NormalizarMayusculas(r.FormValue("empresa_segundo_titular")),
		FechaNacimiento:              utils.ParsearFecha(r.FormValue("fecha_nacimiento")),
		NumeroIdentificacion:         utils.NormalizarNumero(r.FormValue("numero_identificacion")),
		Direccion:                    utils.NormalizarMayusculas(r.FormValue("direccion")),
		Estado:                       r.FormValue("estado"),
	}

	if v := r.FormValue("medio_ingreso_id"); v != "" && v != "todos" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			mid := uint(id)
			f.MedioIngresoID = &mid
		}
	}

	return &f, nil
}

func formularioEntero(r *http.Request, campo string, def int) int {
	v := r.FormValue(campo)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
