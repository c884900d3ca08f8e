package domain

import "errors"

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInternalError    = errors.New("internal error")
	ErrEventNotFound    = errors.New("event not found")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrPartNotFound     = errors.New("part not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrTeacherNotFound  = errors.New("teacher not found")
	ErrReceiptNotFound  = errors.New("receipt not found")

	ErrNotPartMember    = errors.New("student is not a member of the part")
	ErrNotAccountant    = errors.New("student is not an accountant of the part")
	ErrNotWalletTeacher = errors.New("teacher is not assigned to the wallet")

	ErrInvalidTransition = errors.New("action not allowed in current purchase state")
	ErrEmptyItems        = errors.New("purchase requires at least one item")
	ErrInvalidQuantity   = errors.New("item quantity must be at least 1")
	ErrInvalidAmount     = errors.New("amount must be non-negative")
	ErrBudgetExceeded    = errors.New("budget limit exceeded")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
	ErrAlreadyMember     = errors.New("student is already a member of the part")
)

// Validation constants
const (
	MaxNameLength = 255
	MaxNoteLength = 1000
)
