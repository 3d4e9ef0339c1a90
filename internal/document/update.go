package document

import (
	"weekly-menu/internal/domain"
)

// New builds a document for a create request. Protected keys are skipped,
// the caller assigns metadata.
func New[T any, P domain.DocumentPtr[T]](fields Fields) (P, error) {
	var doc T
	p := P(&doc)
	if err := fields.Writable().DecodeInto(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Replace builds the full overwrite of current from fields. Fields absent
// from the payload take their zero value. The id, offline id, owner and
// insert timestamp always come from current.
func Replace[T any, P domain.DocumentPtr[T]](current P, fields Fields) (P, error) {
	return build[T, P](current, fields.Writable())
}

// Patch writes only the supplied top level fields over current.
func Patch[T any, P domain.DocumentPtr[T]](current P, fields Fields) (P, error) {
	merged, err := ToFields(current)
	if err != nil {
		return nil, err
	}
	for k, v := range fields.Writable() {
		merged[k] = v
	}
	return build[T, P](current, merged)
}

func build[T any, P domain.DocumentPtr[T]](current P, fields Fields) (P, error) {
	var doc T
	next := P(&doc)
	if err := fields.DecodeInto(next); err != nil {
		return nil, err
	}
	preserve(next.Metadata(), current.Metadata())
	return next, nil
}

func preserve(dst, src *domain.Meta) {
	dst.ID = src.ID
	dst.OfflineID = src.OfflineID
	dst.Owner = src.Owner
	dst.InsertTimestamp = src.InsertTimestamp
	dst.UpdateTimestamp = src.UpdateTimestamp
}
