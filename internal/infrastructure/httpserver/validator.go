package httpserver

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// requestValidator adapts go-playground/validator to echo.Validator
type requestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() echo.Validator {
	v := validator.New()
	// report json field names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (r *requestValidator) Validate(i interface{}) error {
	return r.validate.Struct(i)
}
