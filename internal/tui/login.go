package tui

import "strings"

// Credentials holds what the login form collects.
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// Registration holds what the sign-up form collects.
type Registration struct {
	FullName string
	Email    string
	Password string
}

// RunLoginForm prompts for email and password interactively. It returns
// ErrFormCancelled when the user backs out.
func RunLoginForm() (Credentials, error) {
	m := newFormModel("Sign in to UpWatch", []formField{
		{label: "Email", validate: notEmpty},
		{label: "Password", secret: true, validate: notEmpty},
		{label: "Remember me (y/n)"},
	})
	result, err := runForm(m)
	if err != nil {
		return Credentials{}, err
	}
	vals := result.values()
	return Credentials{
		Email:      vals[0],
		Password:   vals[1],
		RememberMe: strings.EqualFold(vals[2], "y") || strings.EqualFold(vals[2], "yes"),
	}, nil
}

// RunRegisterForm prompts for the fields needed to create an account.
func RunRegisterForm() (Registration, error) {
	m := newFormModel("Create an UpWatch account", []formField{
		{label: "Full name", validate: notEmpty},
		{label: "Email", validate: notEmpty},
		{label: "Password", secret: true, validate: notEmpty},
	})
	result, err := runForm(m)
	if err != nil {
		return Registration{}, err
	}
	vals := result.values()
	return Registration{FullName: vals[0], Email: vals[1], Password: vals[2]}, nil
}
