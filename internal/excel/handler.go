package excel

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/travelhouse/crm-prospectos/internal/auth"
	"github.com/travelhouse/crm-prospectos/internal/destino"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"github.com/travelhouse/crm-prospectos/internal/prospecto"
	"github.com/travelhouse/crm-prospectos/internal/usuario"
	"github.com/travelhouse/crm-prospectos/internal/utils"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tipoContenidoXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// plantillas define las columnas del archivo de ejemplo por tipo de
// importación.
var plantillas = map[string][]string{
	"usuarios": {"username", "email", "password", "tipo_usuario", "activo"},
	"prospectos": {"telefono", "indicativo_telefono", "nombre", "apellido",
		"correo_electronico", "telefono_secundario", "ciudad_origen", "destino",
		"fecha_ida", "fecha_vuelta", "pasajeros_adultos", "pasajeros_ninos",
		"medio_ingreso", "estado", "agente_username", "observaciones"},
	"clientes": {"telefono", "indicativo_telefono", "nombre", "apellido",
		"correo_electronico", "telefono_secundario", "fecha_nacimiento",
		"numero_identificacion", "direccion"},
}

type Handler struct {
	DB            *gorm.DB
	DestinoRepo   destino.Repository
	ProspectoRepo prospecto.Repository
	UsuarioRepo   usuario.Repository
	Logger        *zap.Logger
}

func NewHandler(db *gorm.DB, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		DestinoRepo:   destino.NewRepository(),
		ProspectoRepo: prospecto.NewRepository(),
		UsuarioRepo:   usuario.NewRepository(),
		Logger:        logger,
	}
}

func (h *Handler) archivoSubido(w http.ResponseWriter, r *http.Request) (multipart.File, bool) {
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		http.Error(w, "Formulario inválido o archivo demasiado grande", http.StatusBadRequest)
		return nil, false
	}
	archivo, _, err := r.FormFile("archivo")
	if err != nil {
		http.Error(w, "Debe seleccionar un archivo", http.StatusBadRequest)
		return nil, false
	}
	return archivo, true
}

func (h *Handler) responderResultado(w http.ResponseWriter, resultado *ResultadoImportacion) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resultado)
}

func (h *Handler) ImportarUsuarios(w http.ResponseWriter, r *http.Request) {
	archivo, ok := h.archivoSubido(w, r)
	if !ok {
		return
	}
	defer archivo.Close()
	resultado, err := ImportarUsuarios(h.DB, archivo)
	if err != nil {
		h.Logger.Error("error importando usuarios", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.responderResultado(w, resultado)
}

func (h *Handler) ImportarProspectos(w http.ResponseWriter, r *http.Request) {
	archivo, ok := h.archivoSubido(w, r)
	if !ok {
		return
	}
	defer archivo.Close()
	resultado, err := ImportarProspectos(h.DB, h.DestinoRepo, archivo)
	if err != nil {
		h.Logger.Error("error importando prospectos", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.responderResultado(w, resultado)
}

func (h *Handler) ImportarClientes(w http.ResponseWriter, r *http.Request) {
	archivo, ok := h.archivoSubido(w, r)
	if !ok {
		return
	}
	defer archivo.Close()
	resultado, err := ImportarClientes(h.DB, archivo)
	if err != nil {
		h.Logger.Error("error importando clientes", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.responderResultado(w, resultado)
}

func (h *Handler) descargarLibro(w http.ResponseWriter, libro *excelize.File, nombre string) {
	defer libro.Close()
	w.Header().Set("Content-Type", tipoContenidoXLSX)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", nombre))
	if err := libro.Write(w); err != nil {
		h.Logger.Error("error escribiendo libro", zap.Error(err))
	}
}

// ExportarProspectos aplica los mismos filtros del listado y descarga el
// resultado.
func (h *Handler) ExportarProspectos(w http.ResponseWriter, r *http.Request) {
	user := auth.UsuarioActual(r)
	q := r.URL.Query()

	f := prospecto.Filtro{
		Estado:   q.Get("estado"),
		Destino:  utils.NormalizarMayusculas(q.Get("destino")),
		Telefono: utils.NormalizarNumero(q.Get("telefono")),
		Busqueda: q.Get("busqueda_global"),
		Pagina:   1,
		// Sin paginar: el reporte lleva todo el resultado filtrado.
		PorPagina: 100000,
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

	list, _, err := h.ProspectoRepo.Listar(h.DB, f)
	if err != nil {
		h.Logger.Error("error listando prospectos", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}
	libro, err := ExportarProspectos(h.DB, list)
	if err != nil {
		h.Logger.Error("error generando reporte", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}
	h.descargarLibro(w, libro, "prospectos.xlsx")
}

func (h *Handler) ExportarUsuarios(w http.ResponseWriter, r *http.Request) {
	list, err := h.UsuarioRepo.Listar(h.DB, false)
	if err != nil {
		h.Logger.Error("error listando usuarios", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}
	libro, err := ExportarUsuarios(list)
	if err != nil {
		h.Logger.Error("error generando reporte", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}
	h.descargarLibro(w, libro, "usuarios.xlsx")
}

func (h *Handler) ExportarInteracciones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	desde, hasta := utils.RangoPeriodo(q.Get("periodo"), q.Get("fecha_inicio"), q.Get("fecha_fin"), time.Now())

	libro, err := ExportarInteracciones(h.DB, desde, hasta)
	if err != nil {
		h.Logger.Error("error generando reporte", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}
	h.descargarLibro(w, libro, "interacciones.xlsx")
}

func (h *Handler) ExportarClientesGanados(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	desde, hasta := utils.RangoPeriodo(q.Get("periodo"), q.Get("fecha_inicio"), q.Get("fecha_fin"), time.Now())

	libro, err := ExportarClientesGanados(h.DB, desde, hasta)
	if err != nil {
		h.Logger.Error("error generando reporte", zap.Error(err))
		http.Error(w, "Error al exportar", http.StatusInternalServerError)
		return
	}
	h.descargarLibro(w, libro, "clientes_ganados.xlsx")
}

// Plantilla descarga el archivo de ejemplo para un tipo de importación.
func (h *Handler) Plantilla(w http.ResponseWriter, r *http.Request) {
	tipo := mux.Vars(r)["tipo"]
	columnas, ok := plantillas[tipo]
	if !ok {
		http.Error(w, "Tipo de plantilla desconocido", http.StatusNotFound)
		return
	}

	encabezados := make([]string, len(columnas))
	copy(encabezados, columnas)
	libro, err := NuevoLibro("Plantilla", encabezados, nil)
	if err != nil {
		h.Logger.Error("error generando plantilla", zap.Error(err))
		http.Error(w, "Error al generar plantilla", http.StatusInternalServerError)
		return
	}
	h.descargarLibro(w, libro, fmt.Sprintf("plantilla_%s.xlsx", tipo))
}
