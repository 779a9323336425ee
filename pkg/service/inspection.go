package service

import (
	"context"
	"time"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/validation"
)

// defaultInspectionInterval is used when no next due date is supplied.
const defaultInspectionInterval = 90 * 24 * time.Hour

// InspectionService manages scored facility assessments. The inspecting user
// becomes the record owner.
type InspectionService struct {
	store storage.Store
}

// NewInspectionService creates an InspectionService.
func NewInspectionService(store storage.Store) *InspectionService {
	return &InspectionService{store: store}
}

// InspectionDetail is an inspection with its references resolved.
type InspectionDetail struct {
	model.Inspection
	FacilityName string         `json:"facilityName,omitempty"`
	InspectorRef *model.UserRef `json:"inspectorRef,omitempty"`
}

// CreateInspectionInput is the payload for recording an inspection.
type CreateInspectionInput struct {
	Facility          string    `json:"facility"`
	Date              time.Time `json:"date"`
	Score             int       `json:"score"`
	Notes             string    `json:"notes"`
	Recommendations   string    `json:"recommendations"`
	Photos            []string  `json:"photos"`
	NextInspectionDue time.Time `json:"nextInspectionDue"`
}

// Create validates and persists an inspection, derives its status from the
// score, and stamps the facility's lastInspection date.
func (s *InspectionService) Create(ctx context.Context, identity *auth.Identity, in CreateInspectionInput) (*InspectionDetail, error) {
	if identity == nil {
		return nil, errs.Unauthenticated("authentication required")
	}

	var v validation.Collector
	v.Require("facility", in.Facility)
	v.Range("score", in.Score, model.MinScore, model.MaxScore)
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	facility, err := s.store.Facilities().GetByID(ctx, in.Facility)
	if err != nil {
		return nil, refErr(err, "facility")
	}

	ts := now().UTC()
	date := in.Date
	if date.IsZero() {
		date = ts
	}
	due := in.NextInspectionDue
	if due.IsZero() {
		due = date.Add(defaultInspectionInterval)
	}

	inspection := &model.Inspection{
		ID:                newID(),
		Facility:          in.Facility,
		Inspector:         identity.ID,
		Date:              date,
		Score:             in.Score,
		Status:            model.StatusForScore(in.Score),
		Notes:             in.Notes,
		Recommendations:   in.Recommendations,
		Photos:            in.Photos,
		NextInspectionDue: due,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}
	if err := s.store.Inspections().Create(ctx, inspection); err != nil {
		return nil, storeErr(err, "inspection", "inspection already exists")
	}

	// Best effort; a failed stamp must not fail the recorded inspection.
	facility.LastInspection = &date
	facility.UpdatedAt = ts
	_ = s.store.Facilities().Update(ctx, facility)

	return s.detail(ctx, inspection), nil
}

// Get returns one inspection with references resolved.
func (s *InspectionService) Get(ctx context.Context, id string) (*InspectionDetail, error) {
	inspection, err := s.store.Inspections().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "inspection", "")
	}
	return s.detail(ctx, inspection), nil
}

// List returns inspections matching the filter.
func (s *InspectionService) List(ctx context.Context, filter storage.InspectionFilter, page storage.Page) ([]*model.Inspection, int64, error) {
	inspections, total, err := s.store.Inspections().List(ctx, filter, page)
	if err != nil {
		return nil, 0, errs.Internal(err)
	}
	return inspections, total, nil
}

// UpdateInspectionInput carries a partial inspection update.
type UpdateInspectionInput struct {
	Date              *time.Time `json:"date"`
	Score             *int       `json:"score"`
	Notes             *string    `json:"notes"`
	Recommendations   *string    `json:"recommendations"`
	Photos            []string   `json:"photos"`
	NextInspectionDue *time.Time `json:"nextInspectionDue"`
}

// Update applies a partial update after the ownership check. A changed score
// recomputes the derived status.
func (s *InspectionService) Update(ctx context.Context, identity *auth.Identity, id string, in UpdateInspectionInput) (*InspectionDetail, error) {
	var v validation.Collector
	if in.Score != nil {
		v.Range("score", *in.Score, model.MinScore, model.MaxScore)
	}
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	inspection, err := s.store.Inspections().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "inspection", "")
	}
	if !auth.CanMutate(identity, inspection.Inspector) {
		return nil, errs.Forbidden("not allowed to modify this inspection")
	}

	if in.Date != nil {
		inspection.Date = *in.Date
	}
	if in.Score != nil {
		inspection.Score = *in.Score
		inspection.Status = model.StatusForScore(*in.Score)
	}
	if in.Notes != nil {
		inspection.Notes = *in.Notes
	}
	if in.Recommendations != nil {
		inspection.Recommendations = *in.Recommendations
	}
	if in.Photos != nil {
		inspection.Photos = in.Photos
	}
	if in.NextInspectionDue != nil {
		inspection.NextInspectionDue = *in.NextInspectionDue
	}
	inspection.UpdatedAt = now().UTC()

	if err := s.store.Inspections().Update(ctx, inspection); err != nil {
		return nil, storeErr(err, "inspection", "")
	}
	return s.detail(ctx, inspection), nil
}

// Delete removes an inspection after the ownership check.
func (s *InspectionService) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	inspection, err := s.store.Inspections().GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "inspection", "")
	}
	if !auth.CanMutate(identity, inspection.Inspector) {
		return errs.Forbidden("not allowed to delete this inspection")
	}
	if err := s.store.Inspections().Delete(ctx, id); err != nil {
		return storeErr(err, "inspection", "")
	}
	return nil
}

func (s *InspectionService) detail(ctx context.Context, inspection *model.Inspection) *InspectionDetail {
	detail := &InspectionDetail{
		Inspection:   *inspection,
		InspectorRef: userRef(ctx, s.store, inspection.Inspector),
	}
	if facility, err := s.store.Facilities().GetByID(ctx, inspection.Facility); err == nil {
		detail.FacilityName = facility.Name
	}
	return detail
}
