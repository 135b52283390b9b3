package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidDocumentType = &AppError{http.StatusBadRequest, "INVALID_DOCUMENT_TYPE", "Unknown document type"}
	ErrInvalidConversion   = &AppError{http.StatusBadRequest, "INVALID_CONVERSION", "Document cannot be converted"}
	ErrReturnNotSupported  = &AppError{http.StatusBadRequest, "RETURN_NOT_SUPPORTED", "Returns are not supported for this document type"}
	ErrNotStockItem        = &AppError{http.StatusBadRequest, "NOT_STOCK_ITEM", "Item does not track stock"}
	ErrInvalidQuantity     = &AppError{http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be greater than zero"}
	ErrInvalidSettlement   = &AppError{http.StatusBadRequest, "INVALID_SETTLEMENT", "Payment allocation is not valid"}
	ErrAlreadyConverted    = &AppError{http.StatusConflict, "ALREADY_CONVERTED", "Document has already been converted"}
	ErrDocumentConverted   = &AppError{http.StatusConflict, "DOCUMENT_CONVERTED", "Converted documents cannot be modified"}
	ErrDocumentAllocated   = &AppError{http.StatusConflict, "DOCUMENT_ALLOCATED", "Document is settled by payment receipts"}
	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
