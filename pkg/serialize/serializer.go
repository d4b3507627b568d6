// Package serialize converts typed payloads into wire-ready message bodies.
package serialize

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotSerializable = errors.New("payload is not serializable")

// Serializer turns a typed value into a message body string.
type Serializer interface {
	Serialize(v any) (string, error)
}

// JSON is the default Serializer, producing compact JSON bodies.
type JSON struct{}

func (JSON) Serialize(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotSerializable, err)
	}
	return string(b), nil
}
