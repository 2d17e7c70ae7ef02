package user

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sauti/core"
)

var (
	institutionEmailTag  = "institution_email"
	institutionEmailText = "only institutional email addresses are allowed"
)

// InitValidators registers the user validators.
// Emails must belong to `domain` or one of its subdomains; an empty domain allows any email.
func InitValidators(validate *validator.Validate, translator ut.Translator, domain string) {
	_ = validate.RegisterValidation(institutionEmailTag, institutionEmailValidation(domain))
	core.RegisterCustomTranslation(validate, translator, institutionEmailTag, institutionEmailText)
}

func institutionEmailValidation(domain string) validator.Func {
	domain = strings.TrimPrefix(core.CleanString(domain, true /* lower */), "@")
	return func(fl validator.FieldLevel) bool {
		if domain == "" {
			return true
		}
		email := strings.ToLower(fl.Field().String())
		at := strings.LastIndex(email, "@")
		if at < 0 {
			return false
		}
		host := email[at+1:]
		return host == domain || strings.HasSuffix(host, "."+domain)
	}
}
