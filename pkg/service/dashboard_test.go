package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/model"
)

func TestDashboardService_Stats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewDashboardService(env.store)
	env.seedVillage(t, "v1")
	env.seedFacility(t, "f1", "v1", "insp-1")

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		status := model.StatusGood
		if i == 0 {
			status = model.StatusCritical
		}
		require.NoError(t, env.store.Inspections().Create(ctx, &model.Inspection{
			ID: fmt.Sprintf("i%d", i), Facility: "f1", Inspector: "insp-1",
			Score: 7, Status: status, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, env.store.Issues().Create(ctx, &model.Issue{
		ID: "is1", Facility: "f1", Title: "Leak", Status: model.IssuePending, Severity: model.SeverityLow,
	}))
	require.NoError(t, env.store.Issues().Create(ctx, &model.Issue{
		ID: "is2", Facility: "f1", Title: "Fixed", Status: model.IssueResolved, Severity: model.SeverityLow,
	}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.Villages)
	assert.EqualValues(t, 1, stats.Facilities)
	assert.EqualValues(t, 7, stats.Inspections)
	assert.EqualValues(t, 1, stats.PendingIssues)
	assert.EqualValues(t, 1, stats.CriticalInspections)

	require.Len(t, stats.RecentInspections, 5)
	assert.Equal(t, "i6", stats.RecentInspections[0].ID, "newest first")
}

func TestDashboardService_StatsEmpty(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewDashboardService(env.store)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Villages)
	assert.NotNil(t, stats.RecentInspections)
	assert.Empty(t, stats.RecentInspections)
}
