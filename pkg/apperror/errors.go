package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Business Logic (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "Wallet not found", http.StatusNotFound)
}

func ErrWalletInactive() *AppError {
	return New("WAL_002", "Wallet is deactivated", http.StatusConflict)
}

func ErrInvalidLabel(reason string) *AppError {
	return New("WAL_003", fmt.Sprintf("Invalid label: %s", reason), http.StatusBadRequest)
}

// ---- Transaction Business Logic (TXN) ----

func ErrDuplicateTxID() *AppError {
	return New("TXN_001", "Transaction id already exists", http.StatusConflict)
}

func ErrInvalidAmount(reason string) *AppError {
	return New("TXN_002", fmt.Sprintf("Invalid amount: %s", reason), http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("TXN_003", "Transaction would result in negative balance", http.StatusPaymentRequired)
}

func ErrTransactionNotFound() *AppError {
	return New("TXN_004", "Transaction not found", http.StatusNotFound)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("TXN_002", message, http.StatusBadRequest)
}
