package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/repo"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrStoreNotReachable = errors.New("store not reachable from user zone")
)

var validate = validator.New()

func validationErr(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return fmt.Errorf("field %s failed on %q: %w", fe.Namespace(), fe.Tag(), ErrValidation)
	}
	return fmt.Errorf("%v: %w", err, ErrValidation)
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}
