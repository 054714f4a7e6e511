// Package errors defines the application error taxonomy. Every error that can
// reach a caller carries a stable HTTP code, a business error code and a
// user-facing message; internal details never leak past the delivery layer.
package errors

import (
	"net/http"

	"procura/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Is matches detailed variants of the same error by business error code.
func (e *BaseError) Is(target error) bool {
	var other *BaseError
	if !errors.As(target, &other) {
		return false
	}

	return e.errorCode == other.errorCode
}

// Predefined error types
var (
	// Account-related errors
	ErrAccountNotFound = NewBaseError(
		http.StatusNotFound,
		"ACCOUNT_NOT_FOUND",
		"找不到該帳號",
		"",
	)

	ErrEmailAlreadyExists = NewBaseError(
		http.StatusConflict,
		"EMAIL_ALREADY_EXISTS",
		"此電子郵件已被註冊",
		"",
	)

	ErrAccountCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"ACCOUNT_CREATION_FAILED",
		"建立帳號失敗",
		"",
	)

	ErrAccountUpdateFailed = NewBaseError(
		http.StatusInternalServerError,
		"ACCOUNT_UPDATE_FAILED",
		"更新帳號失敗",
		"",
	)

	ErrAccountLocked = NewBaseError(
		http.StatusForbidden,
		"ACCOUNT_LOCKED",
		"帳號已被暫時鎖定，請稍後再試",
		"",
	)

	ErrAccountInactive = NewBaseError(
		http.StatusForbidden,
		"ACCOUNT_INACTIVE",
		"帳號已被停用",
		"",
	)

	ErrEmailNotVerified = NewBaseError(
		http.StatusForbidden,
		"EMAIL_NOT_VERIFIED",
		"請先完成電子郵件驗證",
		"",
	)

	// Authentication-related errors
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"電子郵件或密碼錯誤",
		"",
	)

	ErrRefreshTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		"REFRESH_TOKEN_INVALID",
		"無效或已過期的重新整理權杖",
		"",
	)

	ErrVerificationTokenInvalid = NewBaseError(
		http.StatusBadRequest,
		"VERIFICATION_TOKEN_INVALID",
		"無效或已過期的驗證權杖",
		"",
	)

	ErrResetTokenInvalid = NewBaseError(
		http.StatusBadRequest,
		"RESET_TOKEN_INVALID",
		"無效或已過期的重設權杖",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"密碼處理錯誤",
		"",
	)

	ErrPasswordStrength = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_STRENGTH",
		"密碼強度不足",
		"",
	)

	// MFA-related errors
	ErrMFAAlreadyEnabled = NewBaseError(
		http.StatusBadRequest,
		"MFA_ALREADY_ENABLED",
		"多因素驗證已啟用",
		"",
	)

	ErrMFANotEnabled = NewBaseError(
		http.StatusBadRequest,
		"MFA_NOT_ENABLED",
		"多因素驗證尚未啟用",
		"",
	)

	ErrMFACodeInvalid = NewBaseError(
		http.StatusUnauthorized,
		"MFA_CODE_INVALID",
		"驗證碼錯誤",
		"",
	)

	ErrMFASetupFailed = NewBaseError(
		http.StatusInternalServerError,
		"MFA_SETUP_FAILED",
		"多因素驗證設定失敗",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"輸入資料驗證失敗",
		"",
	)

	// Tender-related errors
	ErrTenderNotFound = NewBaseError(
		http.StatusNotFound,
		"TENDER_NOT_FOUND",
		"找不到該招標案",
		"",
	)

	ErrTenderInvalidState = NewBaseError(
		http.StatusBadRequest,
		"TENDER_INVALID_STATE",
		"招標案目前狀態不允許此操作",
		"",
	)

	ErrTenderDeadlineTooSoon = NewBaseError(
		http.StatusBadRequest,
		"TENDER_DEADLINE_TOO_SOON",
		"投標截止時間至少需在七天之後",
		"",
	)

	ErrTenderDeadlinePassed = NewBaseError(
		http.StatusBadRequest,
		"TENDER_DEADLINE_PASSED",
		"投標截止時間已過",
		"",
	)

	// Bid-related errors
	ErrBidNotFound = NewBaseError(
		http.StatusNotFound,
		"BID_NOT_FOUND",
		"找不到該投標",
		"",
	)

	ErrBidInvalidState = NewBaseError(
		http.StatusBadRequest,
		"BID_INVALID_STATE",
		"投標目前狀態不允許此操作",
		"",
	)

	ErrDuplicateBid = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_BID",
		"貴組織已對此招標案投標",
		"",
	)

	ErrNoOrganization = NewBaseError(
		http.StatusBadRequest,
		"NO_ORGANIZATION",
		"帳號未隸屬任何組織，無法投標",
		"",
	)

	// Organization-related errors
	ErrOrganizationNotFound = NewBaseError(
		http.StatusNotFound,
		"ORGANIZATION_NOT_FOUND",
		"找不到該組織",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"資料庫交易失敗",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"系統內部錯誤",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"存取被拒絕",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"找不到該資源",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"資源衝突",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "資料庫執行失敗"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
