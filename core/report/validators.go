package report

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sauti/core"
)

var (
	categoryTag  = "category"
	categoryText = "unknown category"

	priorityTag  = "priority"
	priorityText = "priority must be one of LOW, MEDIUM, HIGH or URGENT"
)

// InitValidators registers the report validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	_ = validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).IsValid()
}

func priorityValidation(fl validator.FieldLevel) bool {
	return Priority(fl.Field().String()).IsValid()
}
