package message

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/pkg/constants"
	"github.com/chathub-dev/chathub/pkg/serrors"
)

type CreateDTO struct {
	Content string    `json:"content" validate:"required,min=1,max=10000"`
	File    *string   `json:"file" validate:"omitempty,max=50"`
	GroupID uuid.UUID `json:"group_uuid" validate:"required"`
}

func (d *CreateDTO) Normalize() {
	d.Content = strings.TrimSpace(d.Content)
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	return serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), nil), false
}

type UpdateDTO struct {
	Content *string `json:"content" validate:"omitempty,min=1,max=10000"`
	File    *string `json:"file" validate:"omitempty,max=50"`
}

func (d *UpdateDTO) Normalize() {
	if d.Content != nil {
		trimmed := strings.TrimSpace(*d.Content)
		d.Content = &trimmed
	}
}

func (d *UpdateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	return serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), nil), false
}
