package document

import (
	"encoding/json"

	"weekly-menu/internal/domain"
)

// Operation is the kind of write a payload is used for.
type Operation int

const (
	OpCreate Operation = iota
	OpReplace
	OpPatch
)

func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpReplace:
		return "replace"
	case OpPatch:
		return "patch"
	default:
		return "unknown"
	}
}

// Guard rejects payloads that touch server owned fields.
//
// Timestamps are never accepted. The document id is always server generated.
// offline_id may only be supplied on create. owner, when present, must be a
// string equal to the caller.
func Guard(op Operation, fields Fields, caller string) error {
	if fields.Has(FieldInsertTimestamp, FieldUpdateTimestamp) {
		return domain.CannotSetTimestamp()
	}
	if fields.Has(FieldID, FieldIDAlias) {
		return domain.CannotSetID(FieldID)
	}
	if op != OpCreate && fields.Has(FieldOfflineID) {
		return domain.CannotSetID(FieldOfflineID)
	}
	if raw, ok := fields[FieldOwner]; ok {
		var owner string
		if err := json.Unmarshal(raw, &owner); err != nil {
			return domain.InvalidPayload("invalid payload supplied", domain.FieldError{
				Field:   FieldOwner,
				Message: "owner must be a string reference",
			})
		}
		if owner != caller {
			return domain.Forbidden("documents can only be owned by the authenticated user")
		}
	}
	return nil
}
