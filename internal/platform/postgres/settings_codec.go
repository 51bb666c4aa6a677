package postgres

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/store"
	"github.com/tidwall/gjson"
)

// encodeSettings renders a settings object for a JSONB column. A nil object
// is stored as {}.
func encodeSettings(obj settings.Object) ([]byte, error) {
	if obj == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return data, nil
}

// decodeSettings parses a JSONB column. Numbers are kept as json.Number so
// integers survive the round trip without becoming float64.
func decodeSettings(data []byte) (settings.Object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return settings.Object{}, nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, store.ErrCorruptSettings
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj settings.Object
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorruptSettings, err)
	}
	if obj == nil {
		obj = settings.Object{}
	}
	return obj, nil
}
