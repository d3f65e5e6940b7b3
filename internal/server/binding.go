package server

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const invalidBodyMessage = "Invalid request body"

var bindMessages = map[string]string{
	"UserName.required":  "Username cannot be empty.",
	"UserEmail.required": "Email cannot be empty.",
	"UserEmail.email":    "Please enter a valid email.",
	"Password.required":  "Password cannot be empty.",
	"Role.oneof":         "Role must be user or instructor.",
}

// bindErrorMessage turns a ShouldBindJSON error into text fit for the envelope.
// Only the first failing field is reported.
func bindErrorMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalidBodyMessage
	}

	fe := fieldErrs[0]
	if msg, ok := bindMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return invalidBodyMessage
}
