package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidSKU        = errors.New("SKU inválido: debe seguir el patrón XX-XXX-000")
	ErrInvalidQuantity   = errors.New("cantidad inválida: debe estar entre 0 y 2147483647")
	ErrDuplicateStock    = errors.New("ya existe stock registrado para el SKU informado")
	ErrStockNotFound     = errors.New("stock no encontrado")
	ErrProductNotFound   = errors.New("producto no encontrado para el SKU informado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// InternalError envuelve fallos de almacenamiento o transporte que no tienen clasificación de dominio.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("error interno al %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Internal clasifica err: los errores de dominio y los InternalError ya construidos pasan intactos,
// cualquier otro se envuelve una sola vez en InternalError.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InternalError
	if errors.As(err, &ie) || IsClassified(err) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

// IsClassified indica si err corresponde a un error de dominio conocido.
func IsClassified(err error) bool {
	for _, target := range []error{
		ErrInvalidSKU, ErrInvalidQuantity, ErrDuplicateStock,
		ErrStockNotFound, ErrProductNotFound, ErrInsufficientStock,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
