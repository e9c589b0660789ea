package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PostForm is the user-editable part of a post. Author is never accepted
// from input.
type PostForm struct {
	Title       string    `form:"title" validate:"required,max=256"`
	Text        string    `form:"text" validate:"required"`
	PubDate     time.Time `form:"pub_date" validate:"required"`
	IsPublished bool      `form:"is_published"`
	CategoryID  *int64    `form:"category"`
	LocationID  *int64    `form:"location"`
}

// CommentForm carries only the text; author and post come from the request.
type CommentForm struct {
	Text string `form:"text" validate:"required,max=5000"`
}

// ProfileForm holds the fields a user may change on their own profile.
type ProfileForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
}

// RegisterForm is the local sign-up form.
type RegisterForm struct {
	Username        string `form:"username" validate:"required,max=150,slug"`
	Email           string `form:"email" validate:"omitempty,email,max=254"`
	Password        string `form:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `form:"password_confirm" validate:"eqfield=Password"`
}

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return strings.ToLower(fld.Name)
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateForm runs the struct tags on form and converts failures into a
// ValidationError with one message per field.
func validateForm(v *validator.Validate, form interface{}) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "slug":
		return "Use only letters, numbers, underscores or hyphens."
	case "eqfield":
		return "The two password fields didn't match."
	}
	return "Enter a valid value."
}
