package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// toHTTPError maps domain and remote failures onto API errors. msg is used
// for failures that carry no user-facing detail.
func toHTTPError(err error, msg string) error {
	var remoteErr *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrUnknownCollection):
		return huma.Error404NotFound("unknown collection")
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, domain.ErrInvalidRecord):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("insufficient permissions")
	case errors.As(err, &remoteErr):
		if remoteErr.IsConflict() {
			return huma.Error409Conflict(remoteErr.Message)
		}
		return huma.Error502BadGateway(remoteErr.Error())
	}
	return huma.Error500InternalServerError(msg, err)
}

// lookup resolves a collection path parameter.
func lookup(name string) (domain.Collection, error) {
	coll, err := domain.Lookup(name)
	if err != nil {
		return domain.Collection{}, toHTTPError(err, "")
	}
	return coll, nil
}
