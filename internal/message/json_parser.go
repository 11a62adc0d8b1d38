package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseDynamicJSON parses a JSON object into a DynamicMessage. Numbers are kept
// as json.Number so integers and floats can be told apart later.
// It returns ErrJSONUnmarshalFailed (wrapping the original error) if unmarshalling fails.
func ParseDynamicJSON(data []byte) (DynamicMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var msg DynamicMessage
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, ErrNotAnObject)
	}
	return msg, nil
}
