package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/tidwall/gjson"
)

// MaxBodyBytes caps request bodies read by the decoders.
const MaxBodyBytes = 1 << 20

var (
	// ErrEmptyBody is returned when a request carries no body.
	ErrEmptyBody = errors.New("request body is empty")

	// ErrNotObject is returned when a settings payload is not a JSON object.
	ErrNotObject = errors.New("settings payload must be a JSON object")
)

var validate = validator.New()

// DecodeJSON decodes the request body into v. Numbers decode as
// json.Number when v holds interface values.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// DecodeSettings reads a settings payload. The body must be a single JSON
// object; numbers are kept as json.Number so integers are not widened to
// float64 before coercion.
func DecodeSettings(r *http.Request) (settings.Object, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, ErrNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj settings.Object
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// ValidateRequest validates v with its struct tags, or with its own
// Validate method when it has one.
func ValidateRequest(v interface{}) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return validate.Struct(v)
}
