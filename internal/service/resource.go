package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"weekly-menu/internal/document"
	"weekly-menu/internal/domain"
	"weekly-menu/internal/repository"
)

// OwnedCounter reports how many of the given ids an owner has in one collection.
type OwnedCounter interface {
	Collection() string
	CountOwned(ctx context.Context, owner string, ids []string) (int, error)
}

// References resolves document references to the collection holding them.
type References map[string]OwnedCounter

// Register makes c available as a reference target.
func (r References) Register(c OwnedCounter) {
	r[c.Collection()] = c
}

// DeleteHook runs after a document was removed.
type DeleteHook func(ctx context.Context, owner, id string) error

// ResourceService runs the write pipeline shared by every owned collection:
// field guard, decode, validation, reference checks, timestamps and owner
// scoped persistence.
type ResourceService[T any, P domain.DocumentPtr[T]] struct {
	repo        repository.DocumentRepository[T, P]
	refs        References
	clock       document.Clock
	logger      logrus.FieldLogger
	afterDelete []DeleteHook
}

func NewResourceService[T any, P domain.DocumentPtr[T]](
	repo repository.DocumentRepository[T, P],
	refs References,
	clock document.Clock,
	logger logrus.FieldLogger,
) *ResourceService[T, P] {
	return &ResourceService[T, P]{
		repo:   repo,
		refs:   refs,
		clock:  clock,
		logger: logger.WithField("collection", repo.Collection()),
	}
}

// AfterDelete registers a hook run once a document has been deleted. Hook
// failures are logged and do not fail the request.
func (s *ResourceService[T, P]) AfterDelete(hook DeleteHook) {
	s.afterDelete = append(s.afterDelete, hook)
}

func (s *ResourceService[T, P]) Collection() string {
	return s.repo.Collection()
}

func (s *ResourceService[T, P]) Create(ctx context.Context, owner string, body []byte) (P, error) {
	fields, err := document.Parse(body)
	if err != nil {
		return nil, err
	}
	if err := document.Guard(document.OpCreate, fields, owner); err != nil {
		return nil, err
	}
	offlineID, err := offlineIDFrom(fields)
	if err != nil {
		return nil, err
	}
	doc, err := document.New[T, P](fields)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	meta := doc.Metadata()
	meta.ID = document.NewID()
	meta.OfflineID = offlineID
	meta.Owner = owner
	meta.InsertTimestamp = now
	meta.UpdateTimestamp = now

	if err := s.prepare(ctx, owner, doc, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, doc); err != nil {
		return nil, s.translate(err, meta.ID)
	}
	return doc, nil
}

func (s *ResourceService[T, P]) Get(ctx context.Context, owner, id string) (P, error) {
	doc, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return doc, nil
}

func (s *ResourceService[T, P]) List(ctx context.Context, owner string, req domain.PageRequest) (domain.Page[P], error) {
	if err := req.Validate(); err != nil {
		return domain.Page[P]{}, err
	}
	page, err := s.repo.List(ctx, owner, req)
	if err != nil {
		return domain.Page[P]{}, fmt.Errorf("list %s: %w", s.repo.Collection(), err)
	}
	return page, nil
}

// Replace overwrites every writable field of the document.
func (s *ResourceService[T, P]) Replace(ctx context.Context, owner, id string, body []byte) (P, error) {
	return s.update(ctx, document.OpReplace, owner, id, body)
}

// Patch writes only the supplied top level fields.
func (s *ResourceService[T, P]) Patch(ctx context.Context, owner, id string, body []byte) (P, error) {
	return s.update(ctx, document.OpPatch, owner, id, body)
}

func (s *ResourceService[T, P]) update(ctx context.Context, op document.Operation, owner, id string, body []byte) (P, error) {
	fields, err := document.Parse(body)
	if err != nil {
		return nil, err
	}
	if err := document.Guard(op, fields, owner); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	known := referencedIDs(current)

	var next P
	if op == document.OpReplace {
		next, err = document.Replace[T, P](current, fields)
	} else {
		next, err = document.Patch[T, P](current, fields)
	}
	if err != nil {
		return nil, err
	}
	return s.save(ctx, owner, current.Metadata().UpdateTimestamp, next, known)
}

// Mutate loads the document, applies fn and stores the result through the
// same validation and timestamp rules as a patch.
func (s *ResourceService[T, P]) Mutate(ctx context.Context, owner, id string, fn func(doc P) error) (P, error) {
	current, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	prev := current.Metadata().UpdateTimestamp
	known := referencedIDs(current)
	if err := fn(current); err != nil {
		return nil, err
	}
	return s.save(ctx, owner, prev, current, known)
}

// save stores next with an update timestamp past prev. References in known
// were held by the stored document and are not checked again.
func (s *ResourceService[T, P]) save(ctx context.Context, owner string, prev int64, next P, known map[string]struct{}) (P, error) {
	if err := s.prepare(ctx, owner, next, known); err != nil {
		return nil, err
	}
	meta := next.Metadata()
	meta.UpdateTimestamp = document.Advance(s.clock, prev)
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, s.translate(err, meta.ID)
	}
	return next, nil
}

func (s *ResourceService[T, P]) Delete(ctx context.Context, owner, id string) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return s.translate(err, id)
	}
	for _, hook := range s.afterDelete {
		if err := hook(ctx, owner, id); err != nil {
			s.logger.WithError(err).WithField("id", id).Warn("after delete hook failed")
		}
	}
	return nil
}

func (s *ResourceService[T, P]) prepare(ctx context.Context, owner string, doc P, known map[string]struct{}) error {
	if n, ok := any(doc).(domain.Normalizer); ok {
		n.Normalize()
	}
	if err := document.Validate(doc); err != nil {
		return err
	}
	r, ok := any(doc).(domain.Referencer)
	if !ok {
		return nil
	}
	refs := r.References()
	for i := range refs {
		fresh := refs[i].IDs[:0:0]
		for _, id := range refs[i].IDs {
			if _, held := known[referenceKey(refs[i].Collection, id)]; !held {
				fresh = append(fresh, id)
			}
		}
		refs[i].IDs = fresh
	}
	return CheckReferences(ctx, s.refs, owner, refs)
}

// referencedIDs snapshots the references doc holds, keyed by collection and id.
func referencedIDs(doc any) map[string]struct{} {
	r, ok := doc.(domain.Referencer)
	if !ok {
		return nil
	}
	known := map[string]struct{}{}
	for _, ref := range r.References() {
		for _, id := range ref.IDs {
			known[referenceKey(ref.Collection, id)] = struct{}{}
		}
	}
	return known
}

func referenceKey(collection, id string) string {
	return collection + "/" + id
}

// CheckReferences verifies every referenced id exists within the owner scope.
func CheckReferences(ctx context.Context, index References, owner string, refs []domain.Reference) error {
	for _, ref := range refs {
		ids := unique(ref.IDs)
		if len(ids) == 0 {
			continue
		}
		counter, ok := index[ref.Collection]
		if !ok {
			return fmt.Errorf("no reference index for %s", ref.Collection)
		}
		n, err := counter.CountOwned(ctx, owner, ids)
		if err != nil {
			return fmt.Errorf("check %s references: %w", ref.Collection, err)
		}
		if n != len(ids) {
			return domain.InvalidPayload("invalid payload supplied", domain.FieldError{
				Field:   ref.Field,
				Message: fmt.Sprintf("must reference existing %s of the user", ref.Collection),
			})
		}
	}
	return nil
}

func (s *ResourceService[T, P]) translate(err error, id string) error {
	return translateStoreError(err, s.repo.Collection(), id)
}

func translateStoreError(err error, collection, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound(fmt.Sprintf("no %s found with id %s", singular(collection), id))
	case errors.Is(err, repository.ErrDuplicate):
		return domain.DuplicateEntry(fmt.Sprintf("duplicate entry found for a %s", singular(collection)))
	default:
		return err
	}
}

func singular(collection string) string {
	switch collection {
	case domain.CollectionRecipes:
		return "recipe"
	case domain.CollectionIngredients:
		return "ingredient"
	case domain.CollectionMenus:
		return "menu"
	case domain.CollectionShoppingLists:
		return "shopping list"
	default:
		return collection
	}
}

// offlineIDFrom returns the client supplied offline id or a new one.
func offlineIDFrom(fields document.Fields) (string, error) {
	raw, ok := fields[document.FieldOfflineID]
	if !ok || string(raw) == "null" {
		return uuid.NewString(), nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil || !document.ValidOfflineID(id) {
		return "", domain.InvalidPayload("invalid payload supplied", domain.FieldError{
			Field:   document.FieldOfflineID,
			Message: "must be a UUID",
		})
	}
	return id, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
