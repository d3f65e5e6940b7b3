package authflow

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailPattern is deliberately loose: something@something.something, no spaces
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Tag registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("loginemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// SignInForm is the sign-in mode's form state
type SignInForm struct {
	UserEmail string `validate:"required,loginemail"`
	Password  string `validate:"required"`
}

// SignUpForm is the sign-up mode's form state
type SignUpForm struct {
	UserName  string `validate:"required"`
	UserEmail string `validate:"required,loginemail"`
	Password  string `validate:"required"`
}

// Validate returns a *ValidationError listing every problem, or nil
func (f SignInForm) Validate() error {
	return validateForm(f)
}

// Validate returns a *ValidationError listing every problem, or nil
func (f SignUpForm) Validate() error {
	return validateForm(f)
}

// ValidationError lists the inline messages that block a submission
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, " ")
}

var fieldMessages = map[string]string{
	"UserEmail.required":   "Email cannot be empty.",
	"UserEmail.loginemail": "Please enter a valid email.",
	"Password.required":    "Password cannot be empty.",
	"UserName.required":    "Username cannot be empty.",
}

func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, known := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !known {
			msg = fe.Error()
		}
		problems = append(problems, msg)
	}
	return &ValidationError{Problems: problems}
}

// ValidEmail reports whether s passes the form email rule
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
