package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// number accepts a JSON number or a numeric string.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return badRequest("invalid number %s", string(b))
	}
	*n = number(f)
	return nil
}

type testRequest struct {
	Channel   string `json:"channel" validate:"required,oneof=email telegram sms inapp"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type tradeRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Side     string `json:"side" validate:"required"`
	Price    number `json:"price" validate:"required"`
	Quantity number `json:"quantity" validate:"required"`
	Agent    string `json:"agent"`
}

type priceAlertRequest struct {
	Symbol    string `json:"symbol" validate:"required"`
	Price     number `json:"price" validate:"required"`
	Target    number `json:"target" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=above below"`
}

type systemRequest struct {
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Priority string `json:"priority"`
}

type customRequest struct {
	Type     string         `json:"type" validate:"required"`
	Data     map[string]any `json:"data" validate:"required"`
	Priority string         `json:"priority"`
	Channels []string       `json:"channels"`
}

// decode reads a JSON body into v and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var re requestError
		switch {
		case errors.As(err, &re):
			return err
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid request body: %v", err)
		}
	}
	if err := h.validate.Struct(v); err != nil {
		return requestError{err: err}
	}
	return nil
}
