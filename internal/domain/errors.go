package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrTransient          = errors.New("falla transitoria del almacén")
	ErrIncompleteDocument = errors.New("documento incompleto, requiere reconciliación")

	ErrProductNotFound  = fmt.Errorf("producto: %w", ErrNotFound)
	ErrPartyNotFound    = fmt.Errorf("tercero: %w", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("documento: %w", ErrNotFound)
)

// ValidationError describe un campo rechazado por la validación del documento.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validación: %s", e.Reason)
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError referencia inexistente dentro del tenant (producto, tercero o documento).
type NotFoundError struct {
	Resource error
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s (id=%s)", e.Resource.Error(), e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Resource }

func ProductNotFound(id string) error  { return &NotFoundError{Resource: ErrProductNotFound, ID: id} }
func PartyNotFound(id string) error    { return &NotFoundError{Resource: ErrPartyNotFound, ID: id} }
func DocumentNotFound(id string) error { return &NotFoundError{Resource: ErrDocumentNotFound, ID: id} }

// StoreErrorKind clasifica las fallas del almacén.
type StoreErrorKind int

const (
	StorePermanent StoreErrorKind = iota
	StoreTransient
)

// StoreError envuelve cualquier falla del almacén con su clasificación.
// Las transitorias son reintentables por el coordinador.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	kind := "permanent"
	if e.Kind == StoreTransient {
		kind = "transient"
	}
	return fmt.Sprintf("store %s (%s): %v", e.Op, kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrTransient) sobre fallas transitorias.
func (e *StoreError) Is(target error) bool {
	return target == ErrTransient && e.Kind == StoreTransient
}

// TransientStoreError construye una falla reintentable.
func TransientStoreError(op string, err error) error {
	return &StoreError{Kind: StoreTransient, Op: op, Err: err}
}

// PermanentStoreError construye una falla no reintentable.
func PermanentStoreError(op string, err error) error {
	return &StoreError{Kind: StorePermanent, Op: op, Err: err}
}

// IsTransient indica si el error puede reintentarse.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// PartialWriteError el encabezado quedó persistido pero las líneas no.
// Si no hay efectos aplicados el borrador se descarta y el número queda libre.
type PartialWriteError struct {
	DocumentID string
	Err        error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("escritura parcial del documento %s: %v", e.DocumentID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// IncompleteDocumentError el documento tiene efectos aplicados parcialmente y quedó
// pendiente de reconciliación.
type IncompleteDocumentError struct {
	DocumentID   string
	PendingSteps []string
	Err          error
}

func (e *IncompleteDocumentError) Error() string {
	return fmt.Sprintf("documento %s incompleto, pasos pendientes [%s]: %v",
		e.DocumentID, strings.Join(e.PendingSteps, ", "), e.Err)
}

func (e *IncompleteDocumentError) Unwrap() []error {
	return []error{ErrIncompleteDocument, e.Err}
}

// DocumentError falla terminal de una operación sobre un documento.
// Discardable indica que no hay efectos aplicados y el documento puede descartarse.
type DocumentError struct {
	DocumentID  string
	Step        string
	Discardable bool
	Err         error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("documento %s falló en %s (descartable=%t): %v",
		e.DocumentID, e.Step, e.Discardable, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// LowStockWarning aviso no fatal: la cantidad resultante quedó por debajo de cero.
type LowStockWarning struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (w LowStockWarning) String() string {
	return fmt.Sprintf("stock bajo en producto %s: %s", w.ProductID, w.Quantity.String())
}
