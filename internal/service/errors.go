package service

import (
	"errors"

	domainerrors "github.com/cineza/cineza-server/internal/errors"
	"github.com/cineza/cineza-server/internal/store"
)

// storeError translates a storage failure into the domain taxonomy.
// Domain errors pass through; a missing row becomes NOT_FOUND with what;
// everything else unexpected is BACKEND_UNAVAILABLE.
func storeError(op, what string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(what + " not found")
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(storeMessage(err, what+" already exists")).WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(storeMessage(err, "invalid "+what)).WithCause(err)
	default:
		return domainerrors.BackendUnavailable(op, err)
	}
}

// storeMessage returns the store error's own message unless it is a sentinel default.
func storeMessage(err error, fallback string) string {
	var se *store.Error
	if errors.As(err, &se) {
		switch se.Message {
		case "", store.ErrAlreadyExists.Message, store.ErrInvalidInput.Message:
		default:
			return se.Message
		}
	}
	return fallback
}
