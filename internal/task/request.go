package task

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	NameMinLength = 3
	NameMaxLength = 255
)

// Request is the body of create and update calls. Status is deliberately absent.
type Request struct {
	Name     string   `json:"name"`
	Priority Priority `json:"priority"`
}

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("name cannot be empty")
	}
	return nil
})

// Validate returns validation.Errors keyed by JSON field name.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name cannot be empty"),
			notBlank,
			validation.RuneLength(NameMinLength, NameMaxLength).Error("name must be between 3 and 255 characters"),
		),
		validation.Field(&r.Priority,
			validation.Required.Error("priority is required"),
			validation.In(PriorityHigh, PriorityMedium, PriorityLow).Error("priority must be HIGH, MEDIUM, or LOW"),
		),
	)
}
