package excel

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/travelhouse/crm-prospectos/internal/destino"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ErrorFila es el registro estructurado de una fila rechazada; la
// importación continúa con la siguiente fila.
type ErrorFila struct {
	Fila  int    `json:"fila"`
	Error string `json:"error"`
}

// ResultadoImportacion resume una importación por lotes.
type ResultadoImportacion struct {
	Creados int         `json:"creados"`
	Errores []ErrorFila `json:"errores"`
}

// hoja lee la primera hoja del libro y separa encabezado de datos. Los
// nombres de columna se normalizan a minúsculas sin espacios laterales.
func hoja(lector io.Reader) (map[string]int, [][]string, error) {
	libro, err := excelize.OpenReader(lector)
	if err != nil {
		return nil, nil, fmt.Errorf("archivo inválido: %w", err)
	}
	defer libro.Close()

	hojas := libro.GetSheetList()
	if len(hojas) == 0 {
		return nil, nil, errors.New("el archivo no tiene hojas")
	}
	filas, err := libro.GetRows(hojas[0])
	if err != nil {
		return nil, nil, err
	}
	if len(filas) < 2 {
		return nil, nil, errors.New("el archivo no tiene filas de datos")
	}

	columnas := make(map[string]int, len(filas[0]))
	for i, nombre := range filas[0] {
		columnas[strings.ToLower(strings.TrimSpace(nombre))] = i
	}
	return columnas, filas[1:], nil
}

func celda(fila []string, columnas map[string]int, nombre string) string {
	idx, ok := columnas[nombre]
	if !ok || idx >= len(fila) {
		return ""
	}
	return strings.TrimSpace(fila[idx])
}

// ImportarUsuarios crea cuentas fila por fila. Una fila inactiva puede omitir
// email y contraseña: el email se fuerza al comodín y se genera una
// contraseña aleatoria de 16 caracteres.
func ImportarUsuarios(db *gorm.DB, lector io.Reader) (*ResultadoImportacion, error) {
	columnas, filas, err := hoja(lector)
	if err != nil {
		return nil, err
	}

	resultado := &ResultadoImportacion{}
	for i, fila := range filas {
		numFila := i + 2

		username := celda(fila, columnas, "username")
		email := utils.NormalizarEmail(celda(fila, columnas, "email"))
		password := celda(fila, columnas, "password")
		tipo := strings.ToLower(celda(fila, columnas, "tipo_usuario"))

		activo := 1
		if v := celda(fila, columnas, "activo"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				activo = n
			}
		}

		if activo == 0 {
			if email == "" {
				email = models.EmailServicioCliente
			}
			if password == "" {
				aleatoria, err := utils.GenerarPasswordAleatoria(16)
				if err != nil {
					resultado.Errores = append(resultado.Errores, ErrorFila{numFila, err.Error()})
					continue
				}
				password = aleatoria
			}
		}

		if username == "" || email == "" || password == "" || tipo == "" {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila,
				"username, email, password y tipo_usuario son requeridos"})
			continue
		}
		if !models.TipoUsuarioValido(tipo) {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila,
				fmt.Sprintf("tipo de usuario inválido: %s", tipo)})
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var existentes int64
			tx.Model(&models.Usuario{}).Where("username = ?", username).Count(&existentes)
			if existentes > 0 {
				return fmt.Errorf("el username %s ya existe", username)
			}

			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			return tx.Create(&models.Usuario{
				Username:       username,
				Email:          email,
				HashedPassword: hash,
				TipoUsuario:    tipo,
				Activo:         activo,
			}).Error
		})
		if err != nil {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila, err.Error()})
			continue
		}
		resultado.Creados++
	}
	return resultado, nil
}

// ImportarProspectos crea solicitudes fila por fila. Un teléfono repetido
// marca la fila como cliente recurrente encadenada a la solicitud previa más
// reciente, reutilizando su ID de cliente. El destino en texto libre se
// empareja contra el catálogo.
func ImportarProspectos(db *gorm.DB, destinoRepo destino.Repository, lector io.Reader) (*ResultadoImportacion, error) {
	columnas, filas, err := hoja(lector)
	if err != nil {
		return nil, err
	}

	resultado := &ResultadoImportacion{}
	for i, fila := range filas {
		numFila := i + 2

		telefono := utils.NormalizarNumero(celda(fila, columnas, "telefono"))
		if telefono == "" {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila, "telefono es requerido"})
			continue
		}
		correo := utils.NormalizarEmail(celda(fila, columnas, "correo_electronico"))
		if correo != "" && !utils.ValidarEmail(correo) {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila,
				fmt.Sprintf("email inválido: %s", correo)})
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var previos []models.Prospecto
			if err := tx.Where("telefono = ? OR telefono_secundario = ?", telefono, telefono).
				Order("fecha_registro DESC").Find(&previos).Error; err != nil {
				return err
			}

			p := models.Prospecto{
				Telefono:             telefono,
				Nombre:               utils.NormalizarMayusculas(celda(fila, columnas, "nombre")),
				Apellido:             utils.NormalizarMayusculas(celda(fila, columnas, "apellido")),
				CorreoElectronico:    correo,
				TelefonoSecundario:   utils.NormalizarNumero(celda(fila, columnas, "telefono_secundario")),
				CiudadOrigen:         utils.NormalizarMayusculas(celda(fila, columnas, "ciudad_origen")),
				Observaciones:        celda(fila, columnas, "observaciones"),
				FechaIda:             utils.ParsearFecha(celda(fila, columnas, "fecha_ida")),
				FechaVuelta:          utils.ParsearFecha(celda(fila, columnas, "fecha_vuelta")),
				FechaNacimiento:      utils.ParsearFecha(celda(fila, columnas, "fecha_nacimiento")),
				NumeroIdentificacion: utils.NormalizarNumero(celda(fila, columnas, "numero_identificacion")),
				PasajerosAdultos:     1,
				Estado:               models.EstadoNuevo,
			}

			if v := celda(fila, columnas, "indicativo_telefono"); v != "" {
				if !utils.IndicativoValido(v) {
					return fmt.Errorf("indicativo inválido: %s", v)
				}
				p.IndicativoTelefono = v
			} else {
				p.IndicativoTelefono = "57"
			}
			if v := celda(fila, columnas, "pasajeros_adultos"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					p.PasajerosAdultos = n
				}
			}
			if v := celda(fila, columnas, "pasajeros_ninos"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n >= 0 {
					p.PasajerosNinos = n
				}
			}
			if estado := strings.ToLower(celda(fila, columnas, "estado")); estado != "" {
				if !models.EstadoValido(estado) {
					return fmt.Errorf("estado inválido: %s", estado)
				}
				p.Estado = estado
			}

			if texto := celda(fila, columnas, "destino"); texto != "" {
				d, err := destino.Emparejar(tx, destinoRepo, texto)
				if err != nil {
					return fmt.Errorf("emparejando destino: %w", err)
				}
				p.DestinoID = &d.ID
				p.Destino = d.Nombre
			}

			// El medio de ingreso llega como nombre libre; la entrada del
			// catálogo se crea sobre la marcha si no existe.
			if nombre := utils.NormalizarMayusculas(celda(fila, columnas, "medio_ingreso")); nombre != "" {
				var medio models.MedioIngreso
				err := tx.Where("nombre = ?", nombre).First(&medio).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					medio = models.MedioIngreso{Nombre: nombre}
					err = tx.Create(&medio).Error
				}
				if err != nil {
					return fmt.Errorf("medio de ingreso: %w", err)
				}
				p.MedioIngresoID = &medio.ID
			}

			if username := celda(fila, columnas, "agente_username"); username != "" {
				var agente models.Usuario
				if err := tx.Where("username = ? AND tipo_usuario = ?", username, models.TipoAgente).
					First(&agente).Error; err != nil {
					return fmt.Errorf("agente no encontrado: %s", username)
				}
				p.AgenteAsignadoID = &agente.ID
			}

			if len(previos) > 0 {
				p.ClienteRecurrente = true
				p.ProspectoOriginalID = &previos[0].ID
			}

			if p.Estado == models.EstadoGanado {
				fecha := utils.ParsearFecha(celda(fila, columnas, "fecha_compra"))
				if fecha == nil {
					ahora := time.Now()
					fecha = &ahora
				}
				p.FechaCompra = fecha
			}

			p.VerificarDatosCompletos()

			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			if len(previos) > 0 && previos[0].IDCliente != "" {
				p.IDCliente = previos[0].IDCliente
			} else {
				p.GenerarIDCliente()
			}
			p.GenerarIDSolicitud()
			if err := tx.Save(&p).Error; err != nil {
				return err
			}

			// Una fila importada ya cotizada o ganada deja su huella en la
			// estadística de cotizaciones.
			if p.Estado == models.EstadoCotizado || p.Estado == models.EstadoGanado {
				e := models.EstadisticaCotizacion{
					AgenteID:        p.AgenteAsignadoID,
					ProspectoID:     p.ID,
					FechaCotizacion: time.Now(),
				}
				if err := tx.Create(&e).Error; err != nil {
					return err
				}
				e.GenerarIDCotizacion()
				if err := tx.Model(&e).Update("id_cotizacion", e.IDCotizacion).Error; err != nil {
					return err
				}
				p.IDCotizacion = e.GenerarIDCotizacion()
				if err := tx.Model(&p).Update("id_cotizacion", p.IDCotizacion).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila, err.Error()})
			continue
		}
		resultado.Creados++
	}
	return resultado, nil
}

// ImportarClientes crea o actualiza la ficha canónica de contacto por
// teléfono.
func ImportarClientes(db *gorm.DB, lector io.Reader) (*ResultadoImportacion, error) {
	columnas, filas, err := hoja(lector)
	if err != nil {
		return nil, err
	}

	resultado := &ResultadoImportacion{}
	for i, fila := range filas {
		numFila := i + 2

		telefono := utils.NormalizarNumero(celda(fila, columnas, "telefono"))
		if telefono == "" {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila, "telefono es requerido"})
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var c models.Cliente
			nuevo := false
			if err := tx.Where("telefono = ?", telefono).First(&c).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				nuevo = true
				c = models.Cliente{Telefono: telefono, IndicativoTelefono: "57"}
			}

			if v := utils.NormalizarMayusculas(celda(fila, columnas, "nombre")); v != "" {
				c.Nombre = v
			}
			if v := utils.NormalizarMayusculas(celda(fila, columnas, "apellido")); v != "" {
				c.Apellido = v
			}
			if v := utils.NormalizarEmail(celda(fila, columnas, "correo_electronico")); v != "" {
				c.CorreoElectronico = v
			}
			if v := utils.NormalizarNumero(celda(fila, columnas, "telefono_secundario")); v != "" {
				c.TelefonoSecundario = v
			}
			if v := celda(fila, columnas, "indicativo_telefono"); v != "" && utils.IndicativoValido(v) {
				c.IndicativoTelefono = v
			}
			if v := utils.ParsearFecha(celda(fila, columnas, "fecha_nacimiento")); v != nil {
				c.FechaNacimiento = v
			}
			if v := utils.NormalizarNumero(celda(fila, columnas, "numero_identificacion")); v != "" {
				c.NumeroIdentificacion = v
			}
			if v := utils.NormalizarMayusculas(celda(fila, columnas, "direccion")); v != "" {
				c.Direccion = v
			}

			if nuevo {
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
				c.GenerarIDCliente()
				return tx.Model(&c).Update("id_cliente", c.IDCliente).Error
			}
			return tx.Save(&c).Error
		})
		if err != nil {
			resultado.Errores = append(resultado.Errores, ErrorFila{numFila, err.Error()})
			continue
		}
		resultado.Creados++
	}
	return resultado, nil
}
