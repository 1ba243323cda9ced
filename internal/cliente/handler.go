package cliente

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Logger     *zap.Logger
}

func NewHandler(db *gorm.DB, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Logger: logger}
}

func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagina, _ := strconv.Atoi(q.Get("pagina"))
	porPagina, _ := strconv.Atoi(q.Get("limit"))

	list, total, err := h.Repository.Listar(h.DB, q.Get("busqueda"), pagina, porPagina)
	if err != nil {
		h.Logger.Error("error listando clientes", zap.Error(err))
		http.Error(w, "Error al listar clientes", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"clientes": list, "total": total})
}

// Detalle devuelve el cliente con sus solicitudes asociadas por ID de cliente.
func (h *Handler) Detalle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Repository.BuscarPorID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "Cliente no encontrado", http.StatusNotFound)
		return
	}

	var solicitudes []models.Prospecto
	h.DB.Where("cliente_id = ? OR id_cliente = ?", c.ID, c.IDCliente).
		Order("fecha_registro DESC").Find(&solicitudes)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"cliente": c, "solicitudes": solicitudes})
}
