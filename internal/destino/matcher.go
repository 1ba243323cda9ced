package destino

import (
	"errors"

	"github.com/agext/levenshtein"
	"github.com/travelhouse/crm-prospectos/internal/models"
	"gorm.io/gorm"
)

// umbralSimilitud es la similitud mínima para considerar que un texto libre
// corresponde a una entrada existente del catálogo.
const umbralSimilitud = 0.7

// Emparejar resuelve un texto libre de destino contra el catálogo: primero
// coincidencia exacta del nombre normalizado, después la entrada activa más
// parecida por distancia de edición, y como último recurso crea la entrada.
func Emparejar(db *gorm.DB, repo Repository, texto string) (*models.Destino, error) {
	nombre := models.NormalizarNombreDestino(texto)
	if nombre == "" {
		return nil, errors.New("nombre de destino vacío")
	}

	if d, err := repo.BuscarPorNombre(db, nombre); err == nil {
		return d, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	existentes, err := repo.Listar(db, true)
	if err != nil {
		return nil, err
	}
	if mejor := masParecido(nombre, existentes); mejor != nil {
		return mejor, nil
	}

	nuevo := models.Destino{Nombre: nombre, Activo: 1}
	if err := db.Create(&nuevo).Error; err != nil {
		return nil, err
	}
	return &nuevo, nil
}

// masParecido devuelve la entrada con mayor similitud sobre el umbral, o nil.
func masParecido(nombre string, catalogo []models.Destino) *models.Destino {
	var mejor *models.Destino
	mejorSimilitud := 0.0
	for i := range catalogo {
		s := levenshtein.Similarity(nombre, catalogo[i].Nombre, nil)
		if s >= umbralSimilitud && s > mejorSimilitud {
			mejor = &catalogo[i]
			mejorSimilitud = s
		}
	}
	return mejor
}
