package authflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func problemsOf(t *testing.T, err error) []string {
	t.Helper()

	if err == nil {
		return nil
	}
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	return verr.Problems
}

func TestSignInForm_Validate(t *testing.T) {
	tests := []struct {
		name string
		form SignInForm
		want []string
	}{
		{name: "valid", form: SignInForm{UserEmail: "a@b.com", Password: "x"}},
		{name: "empty", form: SignInForm{}, want: []string{"Email cannot be empty.", "Password cannot be empty."}},
		{name: "missing at", form: SignInForm{UserEmail: "ab.com", Password: "x"}, want: []string{"Please enter a valid email."}},
		{name: "missing domain", form: SignInForm{UserEmail: "a@", Password: "x"}, want: []string{"Please enter a valid email."}},
		{name: "missing tld", form: SignInForm{UserEmail: "a@b", Password: "x"}, want: []string{"Please enter a valid email."}},
		{name: "contains space", form: SignInForm{UserEmail: "a b@c.com", Password: "x"}, want: []string{"Please enter a valid email."}},
		{name: "empty password", form: SignInForm{UserEmail: "a@b.com"}, want: []string{"Password cannot be empty."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, problemsOf(t, tt.form.Validate()))
		})
	}
}

func TestSignUpForm_Validate(t *testing.T) {
	tests := []struct {
		name string
		form SignUpForm
		want []string
	}{
		{name: "valid", form: SignUpForm{UserName: "alice", UserEmail: "a@b.com", Password: "x"}},
		{name: "empty", form: SignUpForm{}, want: []string{"Username cannot be empty.", "Email cannot be empty.", "Password cannot be empty."}},
		{name: "bad email", form: SignUpForm{UserName: "alice", UserEmail: "alice", Password: "x"}, want: []string{"Please enter a valid email."}},
		{name: "no username", form: SignUpForm{UserEmail: "a@b.com", Password: "x"}, want: []string{"Username cannot be empty."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, problemsOf(t, tt.form.Validate()))
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("student@skillorbit.app"))
	assert.False(t, ValidEmail("student@skillorbit"))
	assert.False(t, ValidEmail(""))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Problems: []string{"Email cannot be empty.", "Password cannot be empty."}}
	assert.Equal(t, "Email cannot be empty. Password cannot be empty.", err.Error())
}
