// Package domain defines error types for the storefront.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ProductNotFoundError is returned when a product with the given ID is not found
type ProductNotFoundError struct {
	ProductID string
}

// Error implements the error interface for ProductNotFoundError
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: id=%s", e.ProductID)
}

// Is allows proper error type checking with errors.Is()
func (e *ProductNotFoundError) Is(target error) bool {
	_, ok := target.(*ProductNotFoundError)
	return ok
}

// InvalidProductError is returned when product validation fails
type InvalidProductError struct {
	Field  string
	Reason string
	Value  interface{}
}

// Error implements the error interface for InvalidProductError
func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product: field=%s, reason=%s, value=%v", e.Field, e.Reason, e.Value)
}

// Is allows proper error type checking with errors.Is()
func (e *InvalidProductError) Is(target error) bool {
	_, ok := target.(*InvalidProductError)
	return ok
}

// DuplicateProductError is returned when attempting to create a product with an existing ID
type DuplicateProductError struct {
	ProductID string
}

// Error implements the error interface for DuplicateProductError
func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("duplicate product: id=%s already exists", e.ProductID)
}

// Is allows proper error type checking with errors.Is()
func (e *DuplicateProductError) Is(target error) bool {
	_, ok := target.(*DuplicateProductError)
	return ok
}

// InvalidAmountError is returned by the pricing engine for negative inputs
type InvalidAmountError struct {
	Field string
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount: %s=%s must be non-negative", e.Field, e.Value)
}

func (e *InvalidAmountError) Is(target error) bool {
	_, ok := target.(*InvalidAmountError)
	return ok
}

// EmptyCartError is returned when submitting a cart with no lines
type EmptyCartError struct{}

func (e *EmptyCartError) Error() string {
	return "cart is empty"
}

func (e *EmptyCartError) Is(target error) bool {
	_, ok := target.(*EmptyCartError)
	return ok
}

// OrderSubmissionFailedError wraps the store failure behind a rejected submission.
// The cart is left untouched so the caller may retry.
type OrderSubmissionFailedError struct {
	Cause error
}

func (e *OrderSubmissionFailedError) Error() string {
	return fmt.Sprintf("order submission failed: %v", e.Cause)
}

func (e *OrderSubmissionFailedError) Unwrap() error {
	return e.Cause
}

func (e *OrderSubmissionFailedError) Is(target error) bool {
	_, ok := target.(*OrderSubmissionFailedError)
	return ok
}

// UnauthenticatedError is returned when an operation requires an identity
type UnauthenticatedError struct {
	Operation string
}

func (e *UnauthenticatedError) Error() string {
	return fmt.Sprintf("unauthenticated: %s requires a signed-in identity", e.Operation)
}

func (e *UnauthenticatedError) Is(target error) bool {
	_, ok := target.(*UnauthenticatedError)
	return ok
}

// NotFoundError is returned for lookups that miss. An order owned by someone
// else is reported the same way as one that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: id=%s", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// MalformedCatalogError is returned when catalog data fails structural validation.
// Index is -1 when the failure is not tied to a single entry.
type MalformedCatalogError struct {
	Index  int
	Reason string
}

func (e *MalformedCatalogError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed catalog: %s", e.Reason)
	}
	return fmt.Sprintf("malformed catalog: product at index %d: %s", e.Index, e.Reason)
}

func (e *MalformedCatalogError) Is(target error) bool {
	_, ok := target.(*MalformedCatalogError)
	return ok
}

// InvalidCredentialsError is returned when a login does not match an account.
// Unknown email and wrong password are not distinguished.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string {
	return "invalid email or password"
}

func (e *InvalidCredentialsError) Is(target error) bool {
	_, ok := target.(*InvalidCredentialsError)
	return ok
}

// DuplicateEmailError is returned when signing up with a registered email
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("user with email %s already exists", e.Email)
}

func (e *DuplicateEmailError) Is(target error) bool {
	_, ok := target.(*DuplicateEmailError)
	return ok
}

// FieldError names one invalid input field
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError lists every invalid field of a request
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// Has reports whether field is among the invalid fields
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// NetworkError wraps a failure to reach a backing store
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

func (e *NetworkError) Is(target error) bool {
	_, ok := target.(*NetworkError)
	return ok
}

// Helper functions for creating errors with context

// NewProductNotFoundError creates a new ProductNotFoundError
func NewProductNotFoundError(productID string) error {
	return &ProductNotFoundError{ProductID: productID}
}

// NewInvalidProductError creates a new InvalidProductError
func NewInvalidProductError(field, reason string, value interface{}) error {
	return &InvalidProductError{
		Field:  field,
		Reason: reason,
		Value:  value,
	}
}

// NewDuplicateProductError creates a new DuplicateProductError
func NewDuplicateProductError(productID string) error {
	return &DuplicateProductError{ProductID: productID}
}

func NewInvalidAmountError(field, value string) error {
	return &InvalidAmountError{Field: field, Value: value}
}

func NewEmptyCartError() error {
	return &EmptyCartError{}
}

func NewOrderSubmissionFailedError(cause error) error {
	return &OrderSubmissionFailedError{Cause: cause}
}

func NewUnauthenticatedError(operation string) error {
	return &UnauthenticatedError{Operation: operation}
}

func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func NewMalformedCatalogError(index int, reason string) error {
	return &MalformedCatalogError{Index: index, Reason: reason}
}

func NewInvalidCredentialsError() error {
	return &InvalidCredentialsError{}
}

func NewDuplicateEmailError(email string) error {
	return &DuplicateEmailError{Email: email}
}

func NewValidationError(fields ...FieldError) error {
	return &ValidationError{Fields: fields}
}

func NewNetworkError(cause error) error {
	return &NetworkError{Cause: cause}
}

// Type assertion helpers for use with errors.As()

// IsProductNotFoundError checks if an error is a ProductNotFoundError
func IsProductNotFoundError(err error) bool {
	var pnf *ProductNotFoundError
	return errors.As(err, &pnf)
}

// IsInvalidProductError checks if an error is an InvalidProductError
func IsInvalidProductError(err error) bool {
	var ipe *InvalidProductError
	return errors.As(err, &ipe)
}

// IsDuplicateProductError checks if an error is a DuplicateProductError
func IsDuplicateProductError(err error) bool {
	var dpe *DuplicateProductError
	return errors.As(err, &dpe)
}

func IsInvalidAmountError(err error) bool {
	var e *InvalidAmountError
	return errors.As(err, &e)
}

func IsEmptyCartError(err error) bool {
	var e *EmptyCartError
	return errors.As(err, &e)
}

func IsOrderSubmissionFailedError(err error) bool {
	var e *OrderSubmissionFailedError
	return errors.As(err, &e)
}

func IsUnauthenticatedError(err error) bool {
	var e *UnauthenticatedError
	return errors.As(err, &e)
}

func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsMalformedCatalogError(err error) bool {
	var e *MalformedCatalogError
	return errors.As(err, &e)
}

func IsInvalidCredentialsError(err error) bool {
	var e *InvalidCredentialsError
	return errors.As(err, &e)
}

func IsDuplicateEmailError(err error) bool {
	var e *DuplicateEmailError
	return errors.As(err, &e)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNetworkError(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}
