package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidDocumentType = errors.New("invalid document type")
	ErrInvalidConversion   = errors.New("document cannot be converted to the requested type")
	ErrAlreadyConverted    = errors.New("document already converted")
	ErrDocumentConverted   = errors.New("converted documents cannot be modified")
	ErrReturnNotSupported  = errors.New("returns are not supported for this document type")
	ErrNotStockItem        = errors.New("item does not track stock")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidSettlement   = errors.New("invalid settlement")
	ErrDocumentAllocated   = errors.New("document is settled by payment receipts")
)
