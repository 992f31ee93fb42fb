package submission

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/samber/lo"
)

// MsgEmptyBody is reported when there is nothing to validate.
const MsgEmptyBody = "Request body cannot be empty."

// Rule tags.
const (
	tagRequired = "required"
	tagNotBlank = "notblank"
	tagEmail    = "contactemail"
)

// ErrTranslatorNotFound indicates the English translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// ruleMessages holds the message reported for a field failing each tag.
var ruleMessages = map[string]string{
	tagRequired: `Request body needs a "{0}" field.`,
	tagNotBlank: `The "{0}" field cannot be empty or spaces.`,
	tagEmail:    `The "{0}" field needs to be a valid email address.`,
}

// presenceTags fail before any format rule is reported.
var presenceTags = []string{tagRequired, tagNotBlank}

var reEmail = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Validator checks records against the required-field and email rules.
// It is safe for concurrent use.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
	rules      map[string]any
}

// NewValidator builds a Validator with the contact-form rule set registered.
func NewValidator() (*Validator, error) {
	validate := validator.New()

	if err := validate.RegisterValidation(tagNotBlank, validators.NotBlank); err != nil {
		return nil, fmt.Errorf("failed to register %s rule: %w", tagNotBlank, err)
	}
	err := validate.RegisterValidation(tagEmail, func(fl validator.FieldLevel) bool {
		return reEmail.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register %s rule: %w", tagEmail, err)
	}

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	trans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	for tag, text := range ruleMessages {
		if err := trans.Add(tag, text, false); err != nil {
			return nil, fmt.Errorf("failed to register %s message: %w", tag, err)
		}
	}

	return &Validator{
		validate:   validate,
		translator: trans,
		rules: map[string]any{
			FieldName:    "required,notblank",
			FieldEmail:   "required,notblank,contactemail",
			FieldMessage: "required,notblank",
		},
	}, nil
}

// Validate returns Accepted, BotDetected or a ValidationError for the first
// failing rule. Missing and blank fields are reported in RequiredFields order
// before the email format, and the bot trap is checked last.
func (v *Validator) Validate(rec Record) Outcome {
	if len(rec) == 0 {
		return invalid(MsgEmptyBody)
	}

	// Present values are passed by pointer so an empty string still counts
	// as present and fails notblank rather than required.
	data := lo.MapValues(map[string]string(rec), func(value string, _ string) any {
		return &value
	})
	failed := lo.MapValues(v.validate.ValidateMap(data, v.rules), func(err any, _ string) string {
		return failedTag(err)
	})

	for _, field := range RequiredFields {
		if tag, ok := failed[field]; ok && lo.Contains(presenceTags, tag) {
			return invalid(v.message(tag, field))
		}
	}
	for _, field := range RequiredFields {
		if tag, ok := failed[field]; ok {
			return invalid(v.message(tag, field))
		}
	}

	if rec.Has(FieldBotTrap) {
		return Outcome{Kind: BotDetected}
	}

	return accepted()
}

// ValidEmail reports whether addr matches the accepted address pattern.
func (v *Validator) ValidEmail(addr string) bool {
	return v.validate.Var(addr, tagEmail) == nil
}

func (v *Validator) message(tag, field string) string {
	msg, err := v.translator.T(tag, field)
	if err != nil {
		return strings.ReplaceAll(ruleMessages[tag], "{0}", field)
	}
	return msg
}

// failedTag returns the first rule tag an error from ValidateMap reports.
// Errors that carry no field detail count as a missing field.
func failedTag(err any) string {
	var verrs validator.ValidationErrors
	if e, ok := err.(error); ok && errors.As(e, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return tagRequired
}
