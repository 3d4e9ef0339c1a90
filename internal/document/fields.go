// Package document holds the write pipeline shared by every owned resource:
// payload parsing and validation, protected field checks, and the replace and
// patch update semantics.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"weekly-menu/internal/domain"
)

// Top level keys the server owns.
const (
	FieldID              = "_id"
	FieldIDAlias         = "id"
	FieldOfflineID       = "offline_id"
	FieldOwner           = "owner"
	FieldInsertTimestamp = "insert_timestamp"
	FieldUpdateTimestamp = "update_timestamp"
)

var protectedFields = map[string]struct{}{
	FieldID:              {},
	FieldIDAlias:         {},
	FieldOfflineID:       {},
	FieldOwner:           {},
	FieldInsertTimestamp: {},
	FieldUpdateTimestamp: {},
}

// IsProtected reports whether key is written only by the server.
func IsProtected(key string) bool {
	_, ok := protectedFields[key]
	return ok
}

// Fields is a request payload split into its top level keys.
type Fields map[string]json.RawMessage

// Parse splits a JSON object body into Fields. Anything other than a JSON
// object is rejected.
func Parse(body []byte) (Fields, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, domain.InvalidPayload("request body is required")
	}
	if body[0] != '{' {
		return nil, domain.InvalidPayload("request body must be a JSON object")
	}
	var fields Fields
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, domain.InvalidPayload(fmt.Sprintf("malformed JSON body: %v", err))
	}
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}

// Has reports whether any of keys is present.
func (f Fields) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return true
		}
	}
	return false
}

// Writable returns a copy without the protected keys.
func (f Fields) Writable() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if IsProtected(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// DecodeInto decodes fields into dst, turning JSON type mismatches into
// INVALID_PAYLOAD errors naming the offending field.
func (f Fields) DecodeInto(dst any) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	return decode(raw, dst)
}

// ToFields encodes a value into Fields.
func ToFields(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}
	return fields, nil
}

func decode(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "(root)"
			}
			return domain.InvalidPayload("invalid payload supplied", domain.FieldError{
				Field:   field,
				Message: fmt.Sprintf("expected %s, got %s", typeErr.Type.String(), typeErr.Value),
			})
		}
		return domain.InvalidPayload(fmt.Sprintf("invalid payload supplied: %v", err))
	}
	return nil
}
