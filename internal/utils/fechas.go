package utils

import (
	"strings"
	"time"
)

// ParsearFecha acepta fechas en DD/MM/YYYY o YYYY-MM-DD. Devuelve nil si la
// cadena está vacía o no se puede parsear.
func ParsearFecha(fecha string) *time.Time {
	fecha = strings.TrimSpace(fecha)
	if fecha == "" {
		return nil
	}
	for _, layout := range []string{"02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, fecha); err == nil {
			return &t
		}
	}
	return nil
}

// ParsearFechaHora acepta el formato datetime-local de formularios HTML.
func ParsearFechaHora(fecha string) *time.Time {
	fecha = strings.TrimSpace(fecha)
	if fecha == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02T15:04", fecha); err == nil {
		return &t
	}
	return nil
}

// InicioDeDia trunca a las 00:00 locales.
func InicioDeDia(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RangoPeriodo calcula el rango de fechas de reporte según el periodo:
// dia, semana (lunes a domingo), año, personalizado (DD/MM/YYYY) o mes por
// defecto.
func RangoPeriodo(periodo, fechaInicio, fechaFin string, ahora time.Time) (time.Time, time.Time) {
	hoy := InicioDeDia(ahora)

	var desde, hasta time.Time
	switch periodo {
	case "personalizado":
		ini := ParsearFecha(fechaInicio)
		fin := ParsearFecha(fechaFin)
		if ini != nil && fin != nil {
			desde, hasta = *ini, *fin
			break
		}
		fallthrough
	case "mes", "":
		desde = time.Date(hoy.Year(), hoy.Month(), 1, 0, 0, 0, 0, hoy.Location())
		hasta = desde.AddDate(0, 1, -1)
	case "dia":
		desde, hasta = hoy, hoy
	case "semana":
		diasDesdeLunes := (int(hoy.Weekday()) + 6) % 7
		desde = hoy.AddDate(0, 0, -diasDesdeLunes)
		hasta = desde.AddDate(0, 0, 6)
	case "año":
		desde = time.Date(hoy.Year(), 1, 1, 0, 0, 0, 0, hoy.Location())
		hasta = time.Date(hoy.Year(), 12, 31, 0, 0, 0, 0, hoy.Location())
	default:
		desde = time.Date(hoy.Year(), hoy.Month(), 1, 0, 0, 0, 0, hoy.Location())
		hasta = desde.AddDate(0, 1, -1)
	}

	// Extremos del día para que el filtro incluya el día completo.
	hasta = time.Date(hasta.Year(), hasta.Month(), hasta.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), hasta.Location())
	return desde, hasta
}
