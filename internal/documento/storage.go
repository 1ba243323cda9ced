package documento

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// extensionesPermitidas para archivos adjuntos de prospectos.
var extensionesPermitidas = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Storage escribe y borra archivos bajo una raíz de uploads, particionados
// por fecha (YYYY/MM/DD) con un prefijo de timestamp contra colisiones.
type Storage struct {
	Raiz string
}

func NewStorage(raiz string) *Storage {
	if raiz == "" {
		raiz = "uploads"
	}
	return &Storage{Raiz: raiz}
}

func ExtensionPermitida(nombre string) bool {
	return extensionesPermitidas[strings.ToLower(filepath.Ext(nombre))]
}

// Guardar persiste el archivo y devuelve su ruta relativa a la raíz.
func (s *Storage) Guardar(archivo multipart.File, nombreOriginal string, ahora time.Time) (string, error) {
	nombre := filepath.Base(nombreOriginal)
	relDir := filepath.Join(ahora.Format("2006"), ahora.Format("01"), ahora.Format("02"))
	dir := filepath.Join(s.Raiz, relDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creando directorio de uploads: %w", err)
	}

	nombreFinal := fmt.Sprintf("%d_%s", ahora.UnixNano(), nombre)
	destino, err := os.Create(filepath.Join(dir, nombreFinal))
	if err != nil {
		return "", fmt.Errorf("creando archivo: %w", err)
	}
	defer destino.Close()

	if _, err := io.Copy(destino, archivo); err != nil {
		return "", fmt.Errorf("escribiendo archivo: %w", err)
	}
	return filepath.Join(relDir, nombreFinal), nil
}

// RutaAbsoluta resuelve una ruta relativa guardada, rechazando escapes de la
// raíz.
func (s *Storage) RutaAbsoluta(relativa string) (string, error) {
	limpia := filepath.Clean(relativa)
	if strings.HasPrefix(limpia, "..") || filepath.IsAbs(limpia) {
		return "", fmt.Errorf("ruta inválida: %s", relativa)
	}
	return filepath.Join(s.Raiz, limpia), nil
}

func (s *Storage) Eliminar(relativa string) error {
	ruta, err := s.RutaAbsoluta(relativa)
	if err != nil {
		return err
	}
	if err := os.Remove(ruta); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
