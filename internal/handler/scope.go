package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/josh-kwaku/billing-ledger/internal/auth"
)

func principal(r *http.Request) (auth.Principal, *AppError) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, ErrMissingToken
	}
	return p, nil
}

// scopedID returns the caller and the {id} path value. A malformed id is
// reported as not found, the same as an id from another tenant.
func scopedID(r *http.Request) (auth.Principal, uuid.UUID, *AppError) {
	p, appErr := principal(r)
	if appErr != nil {
		return auth.Principal{}, uuid.Nil, appErr
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return auth.Principal{}, uuid.Nil, ErrResourceNotFound
	}
	return p, id, nil
}
