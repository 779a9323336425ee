package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// DashboardService computes the landing-page statistics.
type DashboardService struct {
	store storage.Store
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(store storage.Store) *DashboardService {
	return &DashboardService{store: store}
}

// DashboardStats is the aggregate snapshot shown on the dashboard.
type DashboardStats struct {
	Villages            int64               `json:"villages"`
	Facilities          int64               `json:"facilities"`
	Inspections         int64               `json:"inspections"`
	PendingIssues       int64               `json:"pendingIssues"`
	CriticalInspections int64               `json:"criticalInspections"`
	RecentInspections   []*model.Inspection `json:"recentInspections"`
}

// Stats fans the independent counts out in parallel and fails fast on the
// first store error.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.store.Villages().Count(ctx, storage.VillageFilter{})
		stats.Villages = count
		return err
	})
	g.Go(func() error {
		count, err := s.store.Facilities().Count(ctx, storage.FacilityFilter{})
		stats.Facilities = count
		return err
	})
	g.Go(func() error {
		count, err := s.store.Inspections().Count(ctx, storage.InspectionFilter{})
		stats.Inspections = count
		return err
	})
	g.Go(func() error {
		count, err := s.store.Issues().Count(ctx, storage.IssueFilter{Status: model.IssuePending})
		stats.PendingIssues = count
		return err
	})
	g.Go(func() error {
		count, err := s.store.Inspections().Count(ctx, storage.InspectionFilter{Status: model.StatusCritical})
		stats.CriticalInspections = count
		return err
	})
	g.Go(func() error {
		recent, _, err := s.store.Inspections().List(ctx, storage.InspectionFilter{}, storage.Page{Page: 1, Limit: 5})
		stats.RecentInspections = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errs.Internal(err)
	}
	if stats.RecentInspections == nil {
		stats.RecentInspections = []*model.Inspection{}
	}
	return &stats, nil
}
