package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that errors built with a custom
// message still satisfy errors.Is against the package sentinels.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidState        = "INVALID_STATE"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInventoryLocked     = "INVENTORY_LOCKED"
	CodeUpdateLocked        = "UPDATE_LOCKED"
	CodeDeleteLocked        = "DELETE_LOCKED"
	CodeCampaignConflict    = "CAMPAIGN_CONFLICT"
	CodeTransactionFailed   = "TRANSACTION_FAILED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInventoryLocked     = NewDomainError(CodeInventoryLocked, "Stock is locked by an inventory count in progress")
	ErrUpdateLocked        = NewDomainError(CodeUpdateLocked, "Resource can no longer be modified")
	ErrDeleteLocked        = NewDomainError(CodeDeleteLocked, "Resource is referenced and cannot be deleted")
	ErrCampaignConflict    = NewDomainError(CodeCampaignConflict, "An inventory campaign is already in progress")
	ErrTransactionFailed   = NewDomainError(CodeTransactionFailed, "The operation could not be completed")
)

// NewValidationError returns a validation error with a specific message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// InventoryLockedError is raised when a stock mutation is attempted while a
// draft inventory campaign is open for the tenant.
type InventoryLockedError struct {
	CampaignName string
}

func (e *InventoryLockedError) Error() string {
	return fmt.Sprintf("Action bloquée : Un inventaire physique (%q) est actuellement en cours.", e.CampaignName)
}

// Is reports a match against ErrInventoryLocked.
func (e *InventoryLockedError) Is(target error) bool {
	return target == ErrInventoryLocked
}

// DomainError exposes the error in its coded form.
func (e *InventoryLockedError) DomainError() *DomainError {
	return NewDomainError(CodeInventoryLocked, e.Error())
}

// InsufficientStockError reports the requested and available quantities.
type InsufficientStockError struct {
	SKU       string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stock insuffisant pour %s : disponible %d, demandé %d", e.SKU, e.Available, e.Requested)
}

// Is reports a match against ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// DomainError exposes the error in its coded form.
func (e *InsufficientStockError) DomainError() *DomainError {
	return NewDomainError(CodeInsufficientStock, e.Error())
}

// AsDomainError extracts a coded domain error from err, if any.
func AsDomainError(err error) (*DomainError, bool) {
	var coded interface{ DomainError() *DomainError }
	if errors.As(err, &coded) {
		return coded.DomainError(), true
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
