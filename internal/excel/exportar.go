package excel

import (
	"fmt"
	"time"

	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	colorEncabezado = "366092"
	anchoMaximo     = 40.0
	formatoFecha    = "02/01/2006"
)

// EscribirHoja vuelca encabezado y filas con el estilo de reporte: fondo
// azul con letra blanca en negrita, columnas autoajustadas con tope y
// autofiltro sobre el encabezado.
func EscribirHoja(libro *excelize.File, hoja string, encabezados []string, filas [][]any) error {
	if _, err := libro.NewSheet(hoja); err != nil {
		return err
	}

	estilo, err := libro.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{colorEncabezado}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	anchos := make([]float64, len(encabezados))
	for col, titulo := range encabezados {
		ref, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := libro.SetCellValue(hoja, ref, titulo); err != nil {
			return err
		}
		anchos[col] = float64(len(titulo)) + 2
	}

	for i, fila := range filas {
		for col, valor := range fila {
			ref, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := libro.SetCellValue(hoja, ref, valor); err != nil {
				return err
			}
			if col < len(anchos) {
				if w := float64(len(fmt.Sprint(valor))) + 2; w > anchos[col] {
					anchos[col] = w
				}
			}
		}
	}

	ultima, err := excelize.CoordinatesToCellName(len(encabezados), 1)
	if err != nil {
		return err
	}
	if err := libro.SetCellStyle(hoja, "A1", ultima, estilo); err != nil {
		return err
	}
	if err := libro.AutoFilter(hoja, "A1:"+ultima, nil); err != nil {
		return err
	}

	for col := range encabezados {
		nombre, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		ancho := anchos[col]
		if ancho > anchoMaximo {
			ancho = anchoMaximo
		}
		if err := libro.SetColWidth(hoja, nombre, nombre, ancho); err != nil {
			return err
		}
	}
	return nil
}

func NuevoLibro(hoja string, encabezados []string, filas [][]any) (*excelize.File, error) {
	libro := excelize.NewFile()
	if err := EscribirHoja(libro, hoja, encabezados, filas); err != nil {
		libro.Close()
		return nil, err
	}
	if err := libro.DeleteSheet("Sheet1"); err != nil {
		libro.Close()
		return nil, err
	}
	return libro, nil
}

func fechaCelda(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(formatoFecha)
}

func textoCelda(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExportarProspectos rinde el listado filtrado con el nombre del agente
// resuelto.
func ExportarProspectos(db *gorm.DB, prospectos []models.Prospecto) (*excelize.File, error) {
	agentes, err := mapaUsuarios(db)
	if err != nil {
		return nil, err
	}

	encabezados := []string{
		"ID Solicitud", "ID Cliente", "Nombre", "Apellido", "Teléfono", "Email",
		"Destino", "Ciudad Origen", "Fecha Ida", "Fecha Vuelta", "Pasajeros",
		"Estado", "Agente", "Cliente Recurrente", "Fecha Registro", "Fecha Compra",
	}
	filas := make([][]any, 0, len(prospectos))
	for _, p := range prospectos {
		recurrente := "No"
		if p.ClienteRecurrente {
			recurrente = "Sí"
		}
		filas = append(filas, []any{
			textoCelda(p.IDSolicitud), p.IDCliente, p.Nombre, p.Apellido, p.Telefono,
			p.CorreoElectronico, p.Destino, p.CiudadOrigen,
			fechaCelda(p.FechaIda), fechaCelda(p.FechaVuelta),
			p.PasajerosAdultos + p.PasajerosNinos + p.PasajerosInfantes,
			p.Estado, nombreAgente(agentes, p.AgenteAsignadoID), recurrente,
			p.FechaRegistro.Format(formatoFecha), fechaCelda(p.FechaCompra),
		})
	}
	return NuevoLibro("Prospectos", encabezados, filas)
}

func ExportarUsuarios(usuarios []models.Usuario) (*excelize.File, error) {
	encabezados := []string{"Username", "Email", "Tipo", "Activo", "Fecha Creación"}
	filas := make([][]any, 0, len(usuarios))
	for _, u := range usuarios {
		activo := "Sí"
		if u.Activo == 0 {
			activo = "No"
		}
		filas = append(filas, []any{
			u.Username, u.Email, u.TipoUsuario, activo, u.FechaCreacion.Format(formatoFecha),
		})
	}
	return NuevoLibro("Usuarios", encabezados, filas)
}

// ExportarInteracciones rinde la bitácora de un rango de fechas con el
// prospecto y el usuario resueltos.
func ExportarInteracciones(db *gorm.DB, desde, hasta time.Time) (*excelize.File, error) {
	var interacciones []models.Interaccion
	err := db.Where("fecha_creacion BETWEEN ? AND ?", desde, hasta).
		Order("fecha_creacion DESC").Find(&interacciones).Error
	if err != nil {
		return nil, err
	}

	usuarios, err := mapaUsuarios(db)
	if err != nil {
		return nil, err
	}
	prospectos, err := mapaProspectos(db)
	if err != nil {
		return nil, err
	}

	encabezados := []string{
		"Fecha", "Prospecto", "ID Solicitud", "Usuario", "Tipo",
		"Estado Anterior", "Estado Nuevo", "Descripción",
	}
	filas := make([][]any, 0, len(interacciones))
	for _, in := range interacciones {
		nombreProspecto, idSolicitud := "", ""
		if in.ProspectoID != nil {
			if p, ok := prospectos[*in.ProspectoID]; ok {
				nombreProspecto = fmt.Sprintf("%s %s", p.Nombre, p.Apellido)
				idSolicitud = textoCelda(p.IDSolicitud)
			}
		}
		filas = append(filas, []any{
			in.FechaCreacion.Format("02/01/2006 15:04"), nombreProspecto, idSolicitud,
			usuarios[in.UsuarioID], in.TipoInteraccion,
			in.EstadoAnterior, in.EstadoNuevo, in.Descripcion,
		})
	}
	return NuevoLibro("Interacciones", encabezados, filas)
}

// ExportarClientesGanados rinde las ventas del rango.
func ExportarClientesGanados(db *gorm.DB, desde, hasta time.Time) (*excelize.File, error) {
	var prospectos []models.Prospecto
	err := db.Where("estado = ? AND fecha_compra BETWEEN ? AND ?", models.EstadoGanado, desde, hasta).
		Order("fecha_compra DESC").Find(&prospectos).Error
	if err != nil {
		return nil, err
	}

	agentes, err := mapaUsuarios(db)
	if err != nil {
		return nil, err
	}

	encabezados := []string{
		"ID Cliente", "ID Solicitud", "Nombre", "Apellido", "Teléfono", "Email",
		"Identificación", "Dirección", "Destino", "Fecha Ida", "Fecha Compra", "Agente",
	}
	filas := make([][]any, 0, len(prospectos))
	for _, p := range prospectos {
		filas = append(filas, []any{
			p.IDCliente, textoCelda(p.IDSolicitud), p.Nombre, p.Apellido, p.Telefono,
			p.CorreoElectronico, p.NumeroIdentificacion, p.Direccion, p.Destino,
			fechaCelda(p.FechaIda), fechaCelda(p.FechaCompra),
			nombreAgente(agentes, p.AgenteAsignadoID),
		})
	}
	return NuevoLibro("Clientes Ganados", encabezados, filas)
}

func mapaUsuarios(db *gorm.DB) (map[uint]string, error) {
	var usuarios []models.Usuario
	if err := db.Find(&usuarios).Error; err != nil {
		return nil, err
	}
	m := make(map[uint]string, len(usuarios))
	for _, u := range usuarios {
		m[u.ID] = u.Username
	}
	return m, nil
}

func mapaProspectos(db *gorm.DB) (map[uint]models.Prospecto, error) {
	var prospectos []models.Prospecto
	if err := db.Find(&prospectos).Error; err != nil {
		return nil, err
	}
	m := make(map[uint]models.Prospecto, len(prospectos))
	for _, p := range prospectos {
		m[p.ID] = p
	}
	return m, nil
}

func nombreAgente(agentes map[uint]string, id *uint) string {
	if id == nil {
		return "Sin asignar"
	}
	if nombre, ok := agentes[*id]; ok {
		return nombre
	}
	return "Sin asignar"
}
