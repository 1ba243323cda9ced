package prospecto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/travelhouse/crm-prospectos/internal/apperror"
	"github.com/travelhouse/crm-prospectos/internal/auth"
	"github.com/travelhouse/crm-prospectos/internal/cotizacion"
	"github.com/travelhouse/crm-prospectos/internal/email"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/notificacion"
	"github.com/travelhouse/crm-prospectos/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler encapsula DB, repositorios y colaboradores del módulo de
// prospectos.
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	CotRepo    cotizacion.Repository
	NotRepo    notificacion.Repository
	Sender     email.Sender
	Logger     *zap.Logger
}

func NewHandler(db *gorm.DB, sender email.Sender, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		CotRepo:    cotizacion.NewRepository(),
		NotRepo:    notificacion.NewRepository(),
		Sender:     sender,
		Logger:     logger,
	}
}

func redirigir(w http.ResponseWriter, r *http.Request, base, clave, mensaje string) {
	http.Redirect(w, r, base+"?"+clave+"="+url.QueryEscape(mensaje), http.StatusSeeOther)
}

// puedeGestionar aplica el alcance por agente: un agente solo toca sus
// propios prospectos; administradores y supervisores tocan cualquiera.
func puedeGestionar(user *models.Usuario, p *models.Prospecto) bool {
	if user.TipoUsuario != models.TipoAgente {
		return true
	}
	return p.AgenteAsignadoID != nil && *p.AgenteAsignadoID == user.ID
}

// Crear registra una nueva solicitud. Si el teléfono (principal o
// secundario) ya existe, la solicitud queda marcada como cliente recurrente,
// encadenada a la más reciente, reutilizando su ID de cliente y rellenando
// datos de contacto faltantes desde los registros previos.
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	form, err := parsearFormulario(r)
	if err != nil {
		redirigir(w, r, "/prospectos", "error", apperror.Mensaje(err, "Datos inválidos"))
		return
	}

	previos, err := h.Repository.BuscarPorTelefono(h.DB, form.Telefono)
	if err != nil {
		h.Logger.Error("error buscando registros previos", zap.Error(err))
		redirigir(w, r, "/prospectos", "error", "Error al crear prospecto")
		return
	}
	if form.TelefonoSecundario != "" {
		porSecundario, err := h.Repository.BuscarPorTelefono(h.DB, form.TelefonoSecundario)
		if err == nil {
			vistos := make(map[uint]bool, len(previos))
			for _, p := range previos {
				vistos[p.ID] = true
			}
			for _, p := range porSecundario {
				if !vistos[p.ID] {
					previos = append(previos, p)
				}
			}
		}
	}

	forzarNuevo := r.FormValue("forzar_nuevo") == "true" || r.FormValue("forzar_nuevo") == "1"
	if len(previos) > 0 && !forzarNuevo {
		// El frontend muestra la confirmación de cliente existente y
		// reenvía con forzar_nuevo.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"clienteExistente": true,
			"registrosPrevios": len(previos),
			"prospectoId":      previos[0].ID,
		})
		return
	}

	// Determinar agente asignado
	var agenteID *uint
	if v := r.FormValue("agente_asignado_id"); v != "" && v != "0" {
		if id, err := strconv.Atoi(v); err == nil {
			var agente models.Usuario
			if err := h.DB.Where("id = ? AND tipo_usuario = ?", id, models.TipoAgente).First(&agente).Error; err == nil {
				agenteID = &agente.ID
			}
		}
	} else if user.TipoUsuario == models.TipoAgente {
		agenteID = &user.ID
	}

	recurrente := len(previos) > 0

	p := models.Prospecto{
		Nombre:                       form.Nombre,
		Apellido:                     form.Apellido,
		CorreoElectronico:            form.CorreoElectronico,
		Telefono:                     form.Telefono,
		IndicativoTelefono:           form.IndicativoTelefono,
		TelefonoSecundario:           form.TelefonoSecundario,
		IndicativoTelefonoSecundario: form.IndicativoTelefonoSecundario,
		CiudadOrigen:                 form.CiudadOrigen,
		Destino:                      form.Destino,
		FechaIda:                     form.FechaIda,
		FechaVuelta:                  form.FechaVuelta,
		PasajerosAdultos:             form.PasajerosAdultos,
		PasajerosNinos:               form.PasajerosNinos,
		PasajerosInfantes:            form.PasajerosInfantes,
		MedioIngresoID:               form.MedioIngresoID,
		Observaciones:                form.Observaciones,
		EmpresaSegundoTitular:        form.EmpresaSegundoTitular,
		AgenteAsignadoID:             agenteID,
		Estado:                       models.EstadoNuevo,
		ClienteRecurrente:            recurrente,
		FechaNacimiento:              form.FechaNacimiento,
		NumeroIdentificacion:         form.NumeroIdentificacion,
		Direccion:                    form.Direccion,
	}

	// Completar datos faltantes desde registros previos del contacto.
	if recurrente {
		p.ProspectoOriginalID = &previos[0].ID
		for _, prev := range previos {
			if p.Nombre == "" && prev.Nombre != "" {
				p.Nombre = prev.Nombre
			}
			if p.Apellido == "" && prev.Apellido != "" {
				p.Apellido = prev.Apellido
			}
			if p.CorreoElectronico == "" && prev.CorreoElectronico != "" {
				p.CorreoElectronico = prev.CorreoElectronico
			}
			if p.FechaNacimiento == nil && prev.FechaNacimiento != nil {
				p.FechaNacimiento = prev.FechaNacimiento
			}
			if p.NumeroIdentificacion == "" && prev.NumeroIdentificacion != "" {
				p.NumeroIdentificacion = prev.NumeroIdentificacion
			}
			if p.Direccion == "" && prev.Direccion != "" {
				p.Direccion = prev.Direccion
			}
		}
	}

	p.VerificarDatosCompletos()

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		// El ID de cliente identifica a la persona: se hereda del registro
		// previo o se genera una sola vez.
		if recurrente && previos[0].IDCliente != "" {
			p.IDCliente = previos[0].IDCliente
		} else {
			p.GenerarIDCliente()
		}
		p.GenerarIDSolicitud()
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		if recurrente {
			interaccion := models.Interaccion{
				ProspectoID:     &p.ID,
				UsuarioID:       user.ID,
				TipoInteraccion: models.InteraccionSistema,
				Descripcion: fmt.Sprintf("Cliente recurrente registrado. Teléfono: %s. Registros previos: %d",
					form.Telefono, len(previos)),
				EstadoAnterior: previos[0].Estado,
				EstadoNuevo:    models.EstadoNuevo,
			}
			return tx.Create(&interaccion).Error
		}
		return nil
	})
	if err != nil {
		h.Logger.Error("error creando prospecto", zap.Error(err))
		redirigir(w, r, "/prospectos", "error", "Error al crear prospecto")
		return
	}

	mensaje := "Prospecto creado correctamente"
	if recurrente {
		mensaje += " (Cliente recurrente)"
	}
	redirigir(w, r, "/prospectos", "success", mensaje)
}

// Listar devuelve prospectos filtrados. Los agentes solo ven los propios.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)
	q := r.URL.Query()

	f := Filtro{
		Estado:    q.Get("estado"),
		Destino:   utils.NormalizarMayusculas(q.Get("destino")),
		Telefono:  utils.NormalizarNumero(q.Get("telefono")),
		Busqueda:  q.Get("busqueda_global"),
		Pagina:    formularioEnteroQuery(q.Get("pagina"), 1),
		PorPagina: formularioEnteroQuery(q.Get("limit"), 20),
	}
	if d := utils.ParsearFecha(q.Get("fecha_inicio")); d != nil {
		f.RegistroDesde = d
	}
	if d := utils.ParsearFecha(q.Get("fecha_fin")); d != nil {
		fin := d.Add(24*time.Hour - time.Nanosecond)
		f.RegistroHasta = &fin
	}

	if user.TipoUsuario == models.TipoAgente {
		f.AgenteID = &user.ID
	} else if v := q.Get("agente_asignado_id"); v != "" && v != "todos" {
		if id, err := strconv.Atoi(v); err == nil {
			aid := uint(id)
			f.AgenteID = &aid
		}
	}

	list, total, err := h.Repository.Listar(h.DB, f)
	if err != nil {
		h.Logger.Error("error listando prospectos", zap.Error(err))
		http.Error(w, "Error al listar prospectos", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"prospectos": list, "total": total})
}

// ListarCerrados devuelve los prospectos en estados terminales.
func (h *Handler) ListarCerrados(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)
	q := r.URL.Query()

	base := h.DB.Model(&models.Prospecto{}).
		Where("estado IN ?", []string{models.EstadoGanado, models.EstadoCerradoPerdido, models.EstadoVentaCancelada}).
		Where("fecha_eliminacion IS NULL")

	if user.TipoUsuario == models.TipoAgente {
		base = base.Where("agente_asignado_id = ?", user.ID)
	}
	if d := utils.ParsearFecha(q.Get("fecha_cierre_desde")); d != nil {
		base = base.Where("fecha_compra >= ?", *d)
	}
	if d := utils.ParsearFecha(q.Get("fecha_cierre_hasta")); d != nil {
		base = base.Where("fecha_compra <= ?", *d)
	}

	var list []models.Prospecto
	if err := base.Order("fecha_registro DESC").Find(&list).Error; err != nil {
		h.Logger.Error("error listando cerrados", zap.Error(err))
		http.Error(w, "Error al listar prospectos cerrados", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"prospectos": list})
}

// Seguimiento devuelve el detalle del prospecto con su bitácora.
func (h *Handler) Seguimiento(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	p, ok := h.cargarConPermiso(w, r, user, "/prospectos")
	if !ok {
		return
	}

	interacciones, err := h.Repository.ListarInteracciones(h.DB, p.ID)
	if err != nil {
		h.Logger.Error("error cargando interacciones", zap.Error(err))
		http.Error(w, "Error al cargar seguimiento", http.StatusInternalServerError)
		return
	}

	var documentos []models.Documento
	h.DB.Where("prospecto_id = ?", p.ID).Order("fecha_subida DESC").Find(&documentos)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"prospecto":     p,
		"interacciones": interacciones,
		"documentos":    documentos,
	})
}

// RegistrarInteraccion registra una gestión y, si viene cambio_estado,
// aplica la transición con todos sus efectos.
func (h *Handler) RegistrarInteraccion(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	p, ok := h.cargarConPermiso(w, r, user, "/prospectos")
	if !ok {
		return
	}
	destino := fmt.Sprintf("/prospectos/%d/seguimiento", p.ID)

	descripcion := r.FormValue("descripcion")
	cambioEstado := r.FormValue("cambio_estado")

	if cambioEstado != "" && !models.EstadoValido(cambioEstado) && cambioEstado != models.EstadoVentaCancelada {
		redirigir(w, r, destino, "error", "Estado inválido")
		return
	}

	ahora := time.Now()
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := AplicarCambioEstado(tx, h.CotRepo, h.NotRepo, p, CambioEstado{
			EstadoNuevo:     cambioEstado,
			TipoInteraccion: r.FormValue("tipo_interaccion"),
			Descripcion:     descripcion,
			Usuario:         user,
			Ahora:           ahora,
		}); err != nil {
			return err
		}

		// Recordatorio puntual opcional de próximo contacto.
		if fechaProg := utils.ParsearFechaHora(r.FormValue("fecha_proximo_contacto")); fechaProg != nil {
			resumen := descripcion
			if len(resumen) > 50 {
				resumen = resumen[:50] + "..."
			}
			n := models.Notificacion{
				UsuarioID:       user.ID,
				ProspectoID:     &p.ID,
				Tipo:            models.NotificacionSeguimiento,
				Mensaje:         "Recordatorio: " + resumen,
				FechaProgramada: fechaProg,
			}
			if err := h.NotRepo.Crear(tx, &n); err != nil {
				return err
			}
			if user.Email != "" {
				// Best-effort: el fallo del correo no aborta la gestión.
				if err := h.Sender.Enviar(user.Email, "Recordatorio Programado",
					fmt.Sprintf("Has programado un seguimiento para el prospecto %s el %s.",
						p.Nombre, fechaProg.Format("02/01/2006 15:04"))); err != nil {
					h.Logger.Warn("error enviando email de recordatorio", zap.Error(err))
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrTransicion) {
			redirigir(w, r, destino, "error", err.Error())
			return
		}
		h.Logger.Error("error registrando interacción", zap.Error(err))
		redirigir(w, r, destino, "error", "Error al registrar interacción")
		return
	}

	redirigir(w, r, destino, "success", "Interacción registrada")
}

// Editar actualiza los datos del prospecto. Un cambio de estado por esta vía
// respeta el guard de venta cancelada y regenera los recordatorios de viaje
// cuando el prospecto pasa a ganado o cambia su fecha de ida estando ganado.
func (h *Handler) Editar(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	p, ok := h.cargarConPermiso(w, r, user, "/prospectos")
	if !ok {
		return
	}
	retorno := "/prospectos"
	if r.FormValue("origen_solicitud") == "seguimiento" {
		retorno = fmt.Sprintf("/prospectos/%d/seguimiento", p.ID)
	}

	form, err := parsearFormulario(r)
	if err != nil {
		redirigir(w, r, retorno, "error", apperror.Mensaje(err, "Datos inválidos"))
		return
	}

	if form.Estado == models.EstadoVentaCancelada {
		if p.Estado != models.EstadoGanado && p.EstadoAnterior != models.EstadoGanado {
			redirigir(w, r, retorno, "error", "Solo se puede cancelar una venta que haya estado en estado GANADO")
			return
		}
	}

	cambioAGanado := false
	if form.Estado != "" && form.Estado != p.Estado {
		p.EstadoAnterior = p.Estado
		p.Estado = form.Estado
		if form.Estado == models.EstadoGanado {
			cambioAGanado = true
		}
	}

	fechaIdaCambio := !fechasIguales(p.FechaIda, form.FechaIda)

	p.Nombre = form.Nombre
	p.Apellido = form.Apellido
	p.CorreoElectronico = form.CorreoElectronico
	p.Telefono = form.Telefono
	p.IndicativoTelefono = form.IndicativoTelefono
	p.TelefonoSecundario = form.TelefonoSecundario
	p.IndicativoTelefonoSecundario = form.IndicativoTelefonoSecundario
	p.CiudadOrigen = form.CiudadOrigen
	p.Destino = form.Destino
	p.FechaIda = form.FechaIda
	p.FechaVuelta = form.FechaVuelta
	p.PasajerosAdultos = form.PasajerosAdultos
	p.PasajerosNinos = form.PasajerosNinos
	p.PasajerosInfantes = form.PasajerosInfantes
	p.MedioIngresoID = form.MedioIngresoID
	p.Observaciones = form.Observaciones
	p.EmpresaSegundoTitular = form.EmpresaSegundoTitular

	// Datos de facturación solo se persisten para ventas ganadas.
	if p.Estado == models.EstadoGanado {
		p.FechaNacimiento = form.FechaNacimiento
		p.NumeroIdentificacion = form.NumeroIdentificacion
		p.Direccion = form.Direccion
	}

	if cambioAGanado && p.FechaCompra == nil {
		ahora := time.Now()
		p.FechaCompra = &ahora
	}

	ahora := time.Now()
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		if cambioAGanado || (p.Estado == models.EstadoGanado && fechaIdaCambio && p.FechaIda != nil) {
			return notificacion.GenerarRecordatoriosViaje(tx, h.NotRepo, p, ahora)
		}
		return nil
	})
	if err != nil {
		h.Logger.Error("error actualizando prospecto", zap.Error(err))
		redirigir(w, r, retorno, "error", "Error al actualizar prospecto")
		return
	}

	redirigir(w, r, retorno, "success", "Prospecto actualizado correctamente")
}

// ActualizarViaje actualiza solo la información de viaje y deja constancia
// en la bitácora.
func (h *Handler) ActualizarViaje(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	p, ok := h.cargarConPermiso(w, r, user, "/prospectos")
	if !ok {
		return
	}
	retorno := fmt.Sprintf("/prospectos/%d/seguimiento", p.ID)

	form, err := parsearFormulario(r)
	if err != nil {
		redirigir(w, r, retorno, "error", apperror.Mensaje(err, "Datos inválidos"))
		return
	}

	p.Nombre = form.Nombre
	p.Apellido = form.Apellido
	p.CorreoElectronico = form.CorreoElectronico
	p.Telefono = form.Telefono
	p.IndicativoTelefono = form.IndicativoTelefono
	p.TelefonoSecundario = form.TelefonoSecundario
	p.IndicativoTelefonoSecundario = form.IndicativoTelefonoSecundario
	p.CiudadOrigen = form.CiudadOrigen
	p.Destino = form.Destino
	p.FechaIda = form.FechaIda
	p.FechaVuelta = form.FechaVuelta
	p.PasajerosAdultos = form.PasajerosAdultos
	p.PasajerosNinos = form.PasajerosNinos
	p.PasajerosInfantes = form.PasajerosInfantes

	if p.Estado == models.EstadoGanado || p.Estado == models.EstadoVentaCancelada {
		p.FechaNacimiento = form.FechaNacimiento
		p.NumeroIdentificacion = form.NumeroIdentificacion
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		interaccion := models.Interaccion{
			ProspectoID:     &p.ID,
			UsuarioID:       user.ID,
			TipoInteraccion: models.InteraccionSistema,
			Descripcion:     "Información de viaje actualizada",
			EstadoAnterior:  p.Estado,
			EstadoNuevo:     p.Estado,
		}
		return tx.Create(&interaccion).Error
	})
	if err != nil {
		h.Logger.Error("error actualizando viaje", zap.Error(err))
		redirigir(w, r, retorno, "error", "Error al actualizar información")
		return
	}

	redirigir(w, r, retorno, "success", "Información de viaje actualizada correctamente")
}

// Eliminar hace soft delete: marca fecha de eliminación y, si el estado no
// es terminal, lo mueve al pseudo-estado eliminado conservando el real en
// estado_anterior.
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	p, ok := h.cargarConPermiso(w, r, user, "/prospectos")
	if !ok {
		return
	}

	ahora := time.Now()
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		p.FechaEliminacion = &ahora

		if p.Estado != models.EstadoGanado && p.Estado != models.EstadoCerradoPerdido {
			p.EstadoAnterior = p.Estado
			p.Estado = models.EstadoEliminado
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		interaccion := models.Interaccion{
			ProspectoID:     &p.ID,
			UsuarioID:       user.ID,
			TipoInteraccion: models.InteraccionSistema,
			Descripcion:     fmt.Sprintf("Prospecto marcado como eliminado por %s", user.Username),
			EstadoAnterior:  p.EstadoAnterior,
			EstadoNuevo:     models.EstadoEliminado,
		}
		return tx.Create(&interaccion).Error
	})
	if err != nil {
		h.Logger.Error("error eliminando prospecto", zap.Error(err))
		redirigir(w, r, "/prospectos", "error", "Error al eliminar prospecto")
		return
	}

	redirigir(w, r, "/prospectos", "success", "Prospecto eliminado correctamente")
}

// Reactivar deshace el soft delete restaurando el último estado real.
func (h *Handler) Reactivar(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)

	p, ok := h.cargarConPermiso(w, r, user, "/prospectos")
	if !ok {
		return
	}
	if p.FechaEliminacion == nil {
		redirigir(w, r, "/prospectos", "error", "El prospecto no está eliminado")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		p.FechaEliminacion = nil
		if p.Estado == models.EstadoEliminado {
			if p.EstadoAnterior != "" {
				p.Estado = p.EstadoAnterior
			} else {
				p.Estado = models.EstadoNuevo
			}
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		interaccion := models.Interaccion{
			ProspectoID:     &p.ID,
			UsuarioID:       user.ID,
			TipoInteraccion: models.InteraccionSistema,
			Descripcion:     fmt.Sprintf("Prospecto reactivado por %s", user.Username),
			EstadoAnterior:  models.EstadoEliminado,
			EstadoNuevo:     p.Estado,
		}
		return tx.Create(&interaccion).Error
	})
	if err != nil {
		h.Logger.Error("error reactivando prospecto", zap.Error(err))
		redirigir(w, r, "/prospectos", "error", "Error al reactivar prospecto")
		return
	}

	redirigir(w, r, "/prospectos", "success", "Prospecto reactivado correctamente")
}

// Asignar fija o limpia el agente del prospecto (solo privilegiados). La
// asignación notifica al agente y le envía un correo best-effort.
func (h *Handler) Asignar(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)
	if !user.EsPrivilegiado() {
		http.Error(w, "No tiene permisos para esta acción", http.StatusForbidden)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	p, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "Prospecto no encontrado", http.StatusNotFound)
		return
	}

	agenteID, _ := strconv.Atoi(r.FormValue("agente_id"))

	var mensaje string
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if agenteID == 0 {
			p.AgenteAsignadoID = nil
			mensaje = "Prospecto desasignado correctamente"
			return tx.Save(p).Error
		}

		var agente models.Usuario
		if err := tx.Where("id = ? AND tipo_usuario = ?", agenteID, models.TipoAgente).First(&agente).Error; err != nil {
			return apperror.ErrNoEncontrado
		}

		p.AgenteAsignadoID = &agente.ID
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		mensaje = fmt.Sprintf("Agente %s asignado correctamente", agente.Username)

		n := models.Notificacion{
			UsuarioID:   agente.ID,
			ProspectoID: &p.ID,
			Tipo:        models.NotificacionAsignacion,
			Mensaje:     strings.TrimSpace(fmt.Sprintf("Te han asignado un nuevo prospecto: %s %s", p.Nombre, p.Apellido)),
		}
		if err := h.NotRepo.Crear(tx, &n); err != nil {
			return err
		}

		if agente.Email != "" {
			cuerpo := fmt.Sprintf("Hola %s,\n\nSe te ha asignado el prospecto %s %s.\n\nIngresa al sistema para gestionarlo.",
				agente.Username, p.Nombre, p.Apellido)
			if err := h.Sender.Enviar(agente.Email, "Nuevo Prospecto Asignado", cuerpo); err != nil {
				h.Logger.Warn("error enviando email de asignación", zap.Error(err))
			} else {
				n.EmailEnviado = true
				return tx.Save(&n).Error
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNoEncontrado) {
			http.Error(w, "Agente no encontrado", http.StatusNotFound)
			return
		}
		h.Logger.Error("error asignando agente", zap.Error(err))
		redirigir(w, r, "/prospectos", "error", "Error al asignar agente")
		return
	}

	redirigir(w, r, "/prospectos", "success", mensaje)
}

// HistorialCliente devuelve todas las solicitudes encadenadas de una misma
// persona, identificadas por su ID de cliente.
func (h *Handler) HistorialCliente(w http.ResponseWriter, r *http.Request) {
	idCliente := r.URL.Query().Get("id_cliente")
	if idCliente == "" {
		http.Error(w, "id_cliente es requerido", http.StatusBadRequest)
		return
	}

	var list []models.Prospecto
	if err := h.DB.Where("id_cliente = ?", idCliente).Order("fecha_registro DESC").Find(&list).Error; err != nil {
		h.Logger.Error("error cargando historial", zap.Error(err))
		http.Error(w, "Error al cargar historial", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"idCliente": idCliente, "solicitudes": list})
}

// BuscarPorIDNegocio busca por ID de solicitud, cliente o cotización.
func (h *Handler) BuscarPorIDNegocio(w http.ResponseWriter, r *http.Request) {
	valor := strings.TrimSpace(r.URL.Query().Get("q"))
	if valor == "" {
		http.Error(w, "q es requerido", http.StatusBadRequest)
		return
	}

	var list []models.Prospecto
	like := "%" + valor + "%"
	if err := h.DB.Where("id_solicitud LIKE ? OR id_cliente LIKE ? OR id_cotizacion LIKE ?", like, like, like).
		Limit(20).Find(&list).Error; err != nil {
		h.Logger.Error("error buscando por id", zap.Error(err))
		http.Error(w, "Error en la búsqueda", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"resultados": list})
}

// cargarConPermiso resuelve {id}, carga el prospecto y aplica el alcance por
// agente; escribe la respuesta de error y devuelve ok=false si algo falla.
func (h *Handler) cargarConPermiso(w http.ResponseWriter, r *http.Request, user *models.Usuario, retorno string) (*models.Prospecto, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		redirigir(w, r, retorno, "error", "ID inválido")
		return nil, false
	}
	p, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		redirigir(w, r, retorno, "error", "Prospecto no encontrado")
		return nil, false
	}
	if !puedeGestionar(user, p) {
		redirigir(w, r, retorno, "error", "No tiene permisos para este prospecto")
		return nil, false
	}
	return p, true
}

func formularioEnteroQuery(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func fechasIguales(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
