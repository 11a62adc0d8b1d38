package message

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON message")
	ErrNotAnObject         = errors.New("JSON message is not an object")
)
