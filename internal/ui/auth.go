package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"library-search/library"
)

// Authenticator is what the authentication panel submits to.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password, campus string) error
}

// AuthPanel is the login/register form. Its fields are a local draft,
// separate from the controller's session; switching mode keeps them.
type AuthPanel struct {
	Mode     library.AuthMode
	Username string
	Password string
	Campus   string
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type registerForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Campus   string `validate:"omitempty,campus"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("campus", func(fl validator.FieldLevel) bool {
		return library.IsCampus(fl.Field().String())
	})
	return v
}

// ToggleMode switches between login and register.
func (p *AuthPanel) ToggleMode() {
	if p.Mode == library.ModeLogin {
		p.Mode = library.ModeRegister
	} else {
		p.Mode = library.ModeLogin
	}
}

// ShowsCampus reports whether the campus selector is part of the form.
func (p *AuthPanel) ShowsCampus() bool { return p.Mode == library.ModeRegister }

// Validate enforces required fields for the current mode.
func (p *AuthPanel) Validate() error {
	var form any = loginForm{Username: strings.TrimSpace(p.Username), Password: p.Password}
	if p.Mode == library.ModeRegister {
		form = registerForm{
			Username: strings.TrimSpace(p.Username),
			Password: p.Password,
			Campus:   strings.TrimSpace(p.Campus),
		}
	}
	return validationError(validate.Struct(form))
}

// Submit validates the draft and invokes login or register.
func (p *AuthPanel) Submit(ctx context.Context, auth Authenticator) error {
	if err := p.Validate(); err != nil {
		return err
	}
	username := strings.TrimSpace(p.Username)
	if p.Mode == library.ModeRegister {
		return auth.Register(ctx, username, p.Password, p.Campus)
	}
	return auth.Login(ctx, username, p.Password)
}

// Render writes the form without the password.
func (p *AuthPanel) Render(w io.Writer) {
	var b strings.Builder
	title, other := "Login", "no account? switch to register"
	if p.Mode == library.ModeRegister {
		title, other = "Register", "have an account? switch to login"
	}
	b.WriteString(headingStyle.Render(title) + "\n")
	fmt.Fprintf(&b, "Username: %s\n", p.Username)
	fmt.Fprintf(&b, "Password: %s\n", strings.Repeat("*", len([]rune(p.Password))))
	if p.ShowsCampus() {
		campus := p.Campus
		if campus == "" {
			campus = mutedStyle.Render("(optional) " + strings.Join(library.Campuses, " "))
		}
		fmt.Fprintf(&b, "Campus:   %s\n", campus)
	}
	b.WriteString(mutedStyle.Render(other))
	fmt.Fprintln(w, panelStyle.Render(b.String()))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "campus":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(library.Campuses, ", "))
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
