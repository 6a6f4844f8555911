package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Kind is the coarse category of a store failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindDuplicate
	KindForeignKey
	KindNotNull
	KindCheck
	KindConnection
)

// ErrorInfo is a code plus a user-safe message.
type ErrorInfo struct {
	Code    string
	Message string
}

// Classify inspects a store error. Driver messages are matched textually so
// Postgres (pgx) and SQLite produce the same kinds.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindForeignKey
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindDuplicate
	}

	msg := strings.ToLower(err.Error())
	switch {
	// 23503
	case strings.Contains(msg, "foreign key constraint"):
		return KindForeignKey
	// 23505
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return KindDuplicate
	// 23502
	case strings.Contains(msg, "violates not-null constraint"), strings.Contains(msg, "not null constraint failed"):
		return KindNotNull
	// 23514
	case strings.Contains(msg, "check constraint"):
		return KindCheck
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "bad connection"):
		return KindConnection
	}
	return KindUnknown
}

// IsForeignKeyViolation reports whether err is a referential integrity failure.
func IsForeignKeyViolation(err error) bool {
	return Classify(err) == KindForeignKey
}

// IsDuplicateKey reports whether err is a unique constraint failure.
func IsDuplicateKey(err error) bool {
	return Classify(err) == KindDuplicate
}

// ParseError maps a store error to a code and a message that is safe to send
// to clients. context names the operation ("adding to cart", "signing up").
func ParseError(err error, context string) ErrorInfo {
	switch Classify(err) {
	case KindNotFound:
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	case KindDuplicate:
		return parseDuplicateKeyError(err.Error())
	case KindForeignKey:
		return parseForeignKeyError(err.Error())
	case KindNotNull:
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	case KindCheck:
		return ErrorInfo{Code: ValidationInvalidInput, Message: "A field has an invalid value"}
	case KindConnection:
		return ErrorInfo{Code: InternalDatabaseError, Message: "The service is temporarily unavailable. Please try again later"}
	}
	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "User already exists. Please login."}
	}
	if strings.Contains(errLower, "product_title") || strings.Contains(errLower, "idx_cart_user_product") {
		return ErrorInfo{Code: ResourceConflict, Message: "This product is already in the cart"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "This record is still referenced and cannot be removed"}
	}
	// SQLite does not name the column, so an unnamed FK failure on a cart
	// write is the user reference as well.
	return ErrorInfo{Code: CartUserNotFound, Message: "User does not exist. Please login with a valid user."}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "cart"):
		return "Cart item not found or does not belong to user."
	case strings.Contains(contextLower, "product"):
		return "Product not found"
	case strings.Contains(contextLower, "user"):
		return "User not found."
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	if context == "" {
		return "Something went wrong on the server. Please try again later"
	}
	return "Server error while " + context + "."
}

// StatusFor is the HTTP status for a store failure of kind k.
func StatusFor(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindForeignKey, KindNotNull, KindCheck:
		return http.StatusBadRequest
	case KindConnection:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ParseAndRespond writes the status and client-safe body for a store error.
// The error text itself never reaches the response.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(StatusFor(Classify(err)), ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
