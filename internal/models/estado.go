package models

// Estados del ciclo de vida de un prospecto
const (
	EstadoNuevo          = "nuevo"
	EstadoEnSeguimiento  = "en_seguimiento"
	EstadoCotizado       = "cotizado"
	EstadoGanado         = "ganado"
	EstadoCerradoPerdido = "cerrado_perdido"
	EstadoVentaCancelada = "venta_cancelada"

	// EstadoEliminado marca filas con soft delete sin perder el último estado
	// real, que queda en EstadoAnterior.
	EstadoEliminado = "eliminado"
)

// ordenEstados define el orden lineal del embudo. GANADO y CERRADO_PERDIDO
// comparten posición: moverse entre ellos nunca cuenta como regresión.
var ordenEstados = map[string]int{
	EstadoNuevo:          0,
	EstadoEnSeguimiento:  1,
	EstadoCotizado:       2,
	EstadoGanado:         3,
	EstadoCerradoPerdido: 3,
}

// IndiceEstado devuelve la posición del estado en el embudo, o -1 si el
// estado no participa del orden (venta_cancelada, eliminado, vacío).
func IndiceEstado(estado string) int {
	if idx, ok := ordenEstados[estado]; ok {
		return idx
	}
	return -1
}

// EstadoValido acepta los estados que puede traer un formulario o una fila
// de importación.
func EstadoValido(estado string) bool {
	switch estado {
	case EstadoNuevo, EstadoEnSeguimiento, EstadoCotizado, EstadoGanado, EstadoCerradoPerdido:
		return true
	}
	return false
}
