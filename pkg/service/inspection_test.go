package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
)

func TestInspectionService_CreateDerivesStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewInspectionService(env.store)
	env.seedVillage(t, "v1")
	env.seedFacility(t, "f1", "v1", "insp-1")

	tests := []struct {
		score int
		want  model.InspectionStatus
	}{
		{1, model.StatusCritical},
		{3, model.StatusCritical},
		{4, model.StatusNeedsAttention},
		{6, model.StatusNeedsAttention},
		{7, model.StatusGood},
		{10, model.StatusGood},
	}
	for _, tt := range tests {
		detail, err := svc.Create(ctx, env.inspector, CreateInspectionInput{Facility: "f1", Score: tt.score})
		require.NoError(t, err)
		assert.Equal(t, tt.want, detail.Status, "score %d", tt.score)
	}
}

func TestInspectionService_CreateStampsFacility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewInspectionService(env.store)
	env.seedVillage(t, "v1")
	env.seedFacility(t, "f1", "v1", "insp-1")

	detail, err := svc.Create(ctx, env.inspector, CreateInspectionInput{Facility: "f1", Score: 8})
	require.NoError(t, err)
	assert.Equal(t, "insp-1", detail.Inspector)
	assert.False(t, detail.NextInspectionDue.IsZero())

	facility, err := env.store.Facilities().GetByID(ctx, "f1")
	require.NoError(t, err)
	require.NotNil(t, facility.LastInspection)
	assert.Equal(t, detail.Date, *facility.LastInspection)
}

func TestInspectionService_CreateScoreOutOfRange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewInspectionService(env.store)
	env.seedVillage(t, "v1")
	env.seedFacility(t, "f1", "v1", "insp-1")

	for _, score := range []int{0, 11, -3} {
		_, err := svc.Create(ctx, env.inspector, CreateInspectionInput{Facility: "f1", Score: score})
		assert.True(t, errs.Is(err, errs.KindValidation), "score %d", score)
	}
}

func TestInspectionService_CreateUnknownFacility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewInspectionService(env.store)

	_, err := svc.Create(ctx, env.inspector, CreateInspectionInput{Facility: "missing", Score: 5})
	assert.True(t, errs.Is(err, errs.KindReferenceNotFound))
}

func TestInspectionService_UpdateRecomputesStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewInspectionService(env.store)
	env.seedVillage(t, "v1")
	env.seedFacility(t, "f1", "v1", "insp-1")

	detail, err := svc.Create(ctx, env.inspector, CreateInspectionInput{Facility: "f1", Score: 8})
	require.NoError(t, err)
	assert.Equal(t, model.StatusGood, detail.Status)

	score := 2
	updated, err := svc.Update(ctx, env.inspector, detail.ID, UpdateInspectionInput{Score: &score})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCritical, updated.Status)
}

func TestInspectionService_Ownership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewInspectionService(env.store)
	env.seedVillage(t, "v1")
	env.seedFacility(t, "f1", "v1", "insp-1")

	detail, err := svc.Create(ctx, env.inspector, CreateInspectionInput{Facility: "f1", Score: 5})
	require.NoError(t, err)

	notes := "rewritten"
	_, err = svc.Update(ctx, env.leader, detail.ID, UpdateInspectionInput{Notes: &notes})
	assert.True(t, errs.Is(err, errs.KindForbidden))

	err = svc.Delete(ctx, env.leader, detail.ID)
	assert.True(t, errs.Is(err, errs.KindForbidden))

	// Admin passes the ownership rule on records it does not own.
	require.NoError(t, svc.Delete(ctx, env.admin, detail.ID))
}
