// Package stock contiene las reglas de dominio puras para registros de stock.
package stock

import (
	"math"
	"regexp"
)

// skuPattern: dos grupos de 2-3 letras mayúsculas y sufijo numérico de 3 dígitos (ej. AP-IPH-001).
// Sin trim ni normalización: espacios o minúsculas invalidan el SKU.
var skuPattern = regexp.MustCompile(`^[A-Z]{2,3}-[A-Z]{2,3}-[0-9]{3}$`)

// ValidateSKU indica si s cumple el formato de SKU.
func ValidateSKU(s string) bool {
	return skuPattern.MatchString(s)
}

// MaxQuantity es el mayor stock representable (columna INTEGER).
const MaxQuantity = math.MaxInt32

// ValidateQuantity indica si q está presente, no es negativa y no supera MaxQuantity.
func ValidateQuantity(q *int) bool {
	return q != nil && *q >= 0 && *q <= MaxQuantity
}

// CanIncrease indica si sumar delta a current no supera MaxQuantity.
func CanIncrease(current, delta int) bool {
	return delta <= 0 || delta <= MaxQuantity-current
}
