package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidEntry wraps every validation failure.
var ErrInvalidEntry = errors.New("invalid entry")

type entryValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newEntryValidator() *entryValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	eng := en.New()
	uni := ut.New(eng, eng)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
	return &entryValidator{validate: validate, trans: trans}
}

// Struct validates an entry and returns ErrInvalidEntry with readable messages.
func (v *entryValidator) Struct(entry any) error {
	err := v.validate.Struct(entry)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, e.Translate(v.trans))
	}
	return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(messages, ", "))
}
