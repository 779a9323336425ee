package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// now is swapped in tests that assert on timestamps.
var now = time.Now

func newID() string { return uuid.NewString() }

// storeErr maps storage sentinels to the client-facing taxonomy. entity names
// the record for NotFound; conflict is the message for duplicate-key writes.
func storeErr(err error, entity, conflict string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return errs.NotFound(entity)
	case errors.Is(err, storage.ErrDuplicate):
		return errs.Conflict(conflict)
	default:
		return errs.Internal(err)
	}
}

// refErr maps a failed foreign-id lookup: a missing reference is the caller's
// mistake, anything else is ours.
func refErr(err error, reference string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.ReferenceNotFound(reference)
	}
	return errs.Internal(err)
}

// villageRef resolves a village id into its compact reference shape. Missing
// targets resolve to nil rather than failing the read.
func villageRef(ctx context.Context, store storage.Store, id string) *model.VillageRef {
	if id == "" {
		return nil
	}
	village, err := store.Villages().GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return &model.VillageRef{ID: village.ID, Name: village.Name, District: village.District}
}

// userRef resolves a user id into its compact reference shape.
func userRef(ctx context.Context, store storage.Store, id string) *model.UserRef {
	if id == "" {
		return nil
	}
	user, err := store.Users().GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return &model.UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
}
