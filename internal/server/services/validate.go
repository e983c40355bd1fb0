package services

import (
	"fmt"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct runs the struct's validate tags and reports failures as
// common.ErrorValidation.
func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	return nil
}

// requireID reports a malformed id as common.ErrorNotFound: no record can
// carry it, and storage rejects it as an invalid uuid.
func requireID(kind, id string) error {
	if err := validate.Var(id, "required,uuid"); err != nil {
		return fmt.Errorf("%w: %s %q", common.ErrorNotFound, kind, id)
	}
	return nil
}

func validateVar(v any, tag string) error {
	if err := validate.Var(v, tag); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	return nil
}

const (
	emailTag    = "required,email,max=254"
	passwordTag = "required,min=8,max=72"
)

// MaxBanDays bounds temporary bans to roughly a century so expiry stays
// within the timestamp range storage accepts.
const MaxBanDays = 36500
