package settings

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/phrazzld/invoice-api/internal/settings/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		payload      Object
		wantKey      string
		wantExpected schema.TypeTag
	}{
		{
			name:    "empty payload",
			payload: Object{},
		},
		{
			name:    "nil payload",
			payload: nil,
		},
		{
			name: "well typed partial payload",
			payload: Object{
				"payment_terms":     "30",
				"default_task_rate": 12.5,
				"auto_bill":         "yes",
				"pdf_variables":     map[string]any{"client": []any{"name"}},
				"email_recipients":  []any{"a@example.com"},
				"custom_design":     `{"body":"<div/>"}`,
				"invoice_terms":     "Net 30",
			},
		},
		{
			name:    "identifier sent as integer",
			payload: Object{"currency_id": 4},
		},
		{
			name:    "blank values are skipped",
			payload: Object{"payment_terms": "", "auto_bill": nil},
		},
		{
			name:    "unknown keys are ignored",
			payload: Object{"no_such_setting": []any{"anything"}},
		},
		{
			name:    "protected keys are not judged",
			payload: Object{"invoice_number_counter": "not-a-number"},
		},
		{
			name:         "integer beyond int64",
			payload:      Object{"payment_terms": json.Number("99999999999999999999")},
			wantKey:      "payment_terms",
			wantExpected: schema.TypeInteger,
		},
		{
			name:    "long identifier stays a string",
			payload: Object{"currency_id": json.Number("99999999999999999999")},
		},
		{
			name:         "bad integer",
			payload:      Object{"payment_terms": "abc"},
			wantKey:      "payment_terms",
			wantExpected: schema.TypeInteger,
		},
		{
			name:         "identifier checked as integer",
			payload:      Object{"currency_id": "USD"},
			wantKey:      "currency_id",
			wantExpected: schema.TypeInteger,
		},
		{
			name:         "unprotected counter checked as integer",
			payload:      Object{"client_number_counter": "-3"},
			wantKey:      "client_number_counter",
			wantExpected: schema.TypeInteger,
		},
		{
			name:         "float beyond float64",
			payload:      Object{"tax_rate1": "1e400"},
			wantKey:      "tax_rate1",
			wantExpected: schema.TypeFloat,
		},
		{
			name:         "bad float",
			payload:      Object{"tax_rate1": "not-a-number"},
			wantKey:      "tax_rate1",
			wantExpected: schema.TypeFloat,
		},
		{
			name:         "bad json",
			payload:      Object{"custom_design": "{"},
			wantKey:      "custom_design",
			wantExpected: schema.TypeJSON,
		},
		{
			name:         "bad object",
			payload:      Object{"translations": "hello"},
			wantKey:      "translations",
			wantExpected: schema.TypeObject,
		},
	}

	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.payload)
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailed))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantKey, verr.Key)
			assert.Equal(t, tt.wantExpected, verr.Expected)
		})
	}
}

func TestValidate_Deterministic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	payload := Object{
		"tax_rate1":     "x",
		"auto_bill":     "maybe",
		"payment_terms": "abc",
	}

	for i := 0; i < 50; i++ {
		var verr *ValidationError
		require.True(t, errors.As(e.Validate(payload), &verr))
		assert.Equal(t, "auto_bill", verr.Key)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	payload := Object{"currency_id": 4, "payment_terms": "30", "name": ""}
	snapshot := payload.Clone()

	require.NoError(t, e.Validate(payload))
	assert.Equal(t, snapshot, payload)
}

func TestValidate_ReportsToObserver(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	e := newTestEngine(t, WithObserver(obs))

	require.Error(t, e.Validate(Object{"payment_terms": "abc"}))
	assert.Equal(t, []observation{{"payment_terms", schema.TypeInteger}}, obs.failed)
	assert.Empty(t, obs.dropped)
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Key: "tax_rate1", Expected: schema.TypeFloat}
	assert.Equal(t, "settings validation failed: tax_rate1 must be of type float", err.Error())
	assert.Equal(t, ErrValidationFailed, err.Unwrap())
}
