package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/restockhq/restock-backend/api/middleware"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
)

// requestScope resolves the authenticated business and user ids seeded by
// the auth middleware.
func requestScope(r *http.Request) (businessID, userID uuid.UUID, err error) {
	rawBusiness := middleware.BusinessIDFromContext(r.Context())
	if rawBusiness == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "business context missing")
	}
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}

	businessID, err = uuid.Parse(rawBusiness)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid business id")
	}
	userID, err = uuid.Parse(rawUser)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return businessID, userID, nil
}
