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

// FacilityService manages sanitation facilities. The creating user becomes
// the record owner; non-admin mutation requires ownership.
type FacilityService struct {
	store storage.Store
	blobs storage.BlobStore
}

// NewFacilityService creates a FacilityService.
func NewFacilityService(store storage.Store, blobs storage.BlobStore) *FacilityService {
	return &FacilityService{store: store, blobs: blobs}
}

// FacilityDetail is a facility with its references resolved.
type FacilityDetail struct {
	model.Facility
	VillageRef   *model.VillageRef `json:"villageRef,omitempty"`
	CreatedByRef *model.UserRef    `json:"createdByRef,omitempty"`
}

// CreateFacilityInput is the payload for facility creation.
type CreateFacilityInput struct {
	Name          string             `json:"name"`
	Type          model.FacilityType `json:"type"`
	Village       string             `json:"village"`
	Location      []float64          `json:"location"`
	Condition     model.Condition    `json:"condition"`
	InstalledDate time.Time          `json:"installedDate"`
	Notes         string             `json:"notes"`
}

func validateFacilityFields(v *validation.Collector, facilityType *model.FacilityType, condition *model.Condition, location []float64) {
	if facilityType != nil {
		v.OneOf("type", string(*facilityType), model.ValidFacilityType(*facilityType),
			string(model.FacilityToilet), string(model.FacilityWell),
			string(model.FacilityWaterTank), string(model.FacilityHandPump))
	}
	if condition != nil {
		v.OneOf("condition", string(*condition), model.ValidCondition(*condition),
			string(model.ConditionExcellent), string(model.ConditionGood),
			string(model.ConditionFair), string(model.ConditionPoor), string(model.ConditionCritical))
	}
	if location != nil && len(location) != 2 {
		v.Add("location", "must be a [longitude, latitude] pair")
	}
}

// Create validates and persists a facility owned by the caller.
func (s *FacilityService) Create(ctx context.Context, identity *auth.Identity, in CreateFacilityInput) (*FacilityDetail, error) {
	if identity == nil {
		return nil, errs.Unauthenticated("authentication required")
	}

	var v validation.Collector
	v.Require("name", in.Name)
	v.Require("type", string(in.Type))
	v.Require("village", in.Village)
	v.Require("condition", string(in.Condition))
	if in.InstalledDate.IsZero() {
		v.Add("installedDate", "is required")
	}
	if len(in.Location) == 0 {
		v.Add("location", "is required")
	}
	validateFacilityFields(&v, &in.Type, &in.Condition, in.Location)
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	if _, err := s.store.Villages().GetByID(ctx, in.Village); err != nil {
		return nil, refErr(err, "village")
	}

	ts := now().UTC()
	facility := &model.Facility{
		ID:            newID(),
		Name:          in.Name,
		Type:          in.Type,
		Village:       in.Village,
		Location:      in.Location,
		Condition:     in.Condition,
		InstalledDate: in.InstalledDate,
		Notes:         in.Notes,
		CreatedBy:     identity.ID,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if err := s.store.Facilities().Create(ctx, facility); err != nil {
		return nil, storeErr(err, "facility", "facility already exists")
	}
	return s.detail(ctx, facility), nil
}

// Get returns one facility with references resolved.
func (s *FacilityService) Get(ctx context.Context, id string) (*FacilityDetail, error) {
	facility, err := s.store.Facilities().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "facility", "")
	}
	return s.detail(ctx, facility), nil
}

// List returns facilities matching the filter.
func (s *FacilityService) List(ctx context.Context, filter storage.FacilityFilter, page storage.Page) ([]*model.Facility, int64, error) {
	facilities, total, err := s.store.Facilities().List(ctx, filter, page)
	if err != nil {
		return nil, 0, errs.Internal(err)
	}
	return facilities, total, nil
}

// UpdateFacilityInput carries a partial facility update.
type UpdateFacilityInput struct {
	Name          *string             `json:"name"`
	Type          *model.FacilityType `json:"type"`
	Village       *string             `json:"village"`
	Location      []float64           `json:"location"`
	Condition     *model.Condition    `json:"condition"`
	InstalledDate *time.Time          `json:"installedDate"`
	Notes         *string             `json:"notes"`
}

// Update applies a partial update. The ownership rule is evaluated against
// the stored record before anything changes.
func (s *FacilityService) Update(ctx context.Context, identity *auth.Identity, id string, in UpdateFacilityInput) (*FacilityDetail, error) {
	var v validation.Collector
	if in.Name != nil {
		v.Require("name", *in.Name)
	}
	validateFacilityFields(&v, in.Type, in.Condition, in.Location)
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	facility, err := s.store.Facilities().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "facility", "")
	}
	if !auth.CanMutate(identity, facility.CreatedBy) {
		return nil, errs.Forbidden("not allowed to modify this facility")
	}

	if in.Village != nil {
		if _, err := s.store.Villages().GetByID(ctx, *in.Village); err != nil {
			return nil, refErr(err, "village")
		}
		facility.Village = *in.Village
	}
	if in.Name != nil {
		facility.Name = *in.Name
	}
	if in.Type != nil {
		facility.Type = *in.Type
	}
	if in.Location != nil {
		facility.Location = in.Location
	}
	if in.Condition != nil {
		facility.Condition = *in.Condition
	}
	if in.InstalledDate != nil {
		facility.InstalledDate = *in.InstalledDate
	}
	if in.Notes != nil {
		facility.Notes = *in.Notes
	}
	facility.UpdatedAt = now().UTC()

	if err := s.store.Facilities().Update(ctx, facility); err != nil {
		return nil, storeErr(err, "facility", "facility already exists")
	}
	return s.detail(ctx, facility), nil
}

// AddImage stores an uploaded photo in the blob store and attaches its key
// to the facility.
func (s *FacilityService) AddImage(ctx context.Context, identity *auth.Identity, id string, content []byte, contentType string) (*FacilityDetail, error) {
	if len(content) == 0 {
		return nil, errs.Validation([]string{"image: is required"})
	}

	facility, err := s.store.Facilities().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "facility", "")
	}
	if !auth.CanMutate(identity, facility.CreatedBy) {
		return nil, errs.Forbidden("not allowed to modify this facility")
	}

	key, err := s.blobs.Put(ctx, content, contentType)
	if err != nil {
		return nil, errs.Internal(err)
	}
	facility.Images = append(facility.Images, key)
	facility.UpdatedAt = now().UTC()

	if err := s.store.Facilities().Update(ctx, facility); err != nil {
		return nil, storeErr(err, "facility", "")
	}
	return s.detail(ctx, facility), nil
}

// Delete removes a facility. Facilities with inspections cannot be deleted.
func (s *FacilityService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Facilities().GetByID(ctx, id); err != nil {
		return storeErr(err, "facility", "")
	}
	dependents, err := s.store.Inspections().Count(ctx, storage.InspectionFilter{Facility: id})
	if err != nil {
		return errs.Internal(err)
	}
	if dependents > 0 {
		return errs.Conflict("facility has inspections; delete them first")
	}
	if err := s.store.Facilities().Delete(ctx, id); err != nil {
		return storeErr(err, "facility", "")
	}
	return nil
}

func (s *FacilityService) detail(ctx context.Context, facility *model.Facility) *FacilityDetail {
	return &FacilityDetail{
		Facility:     *facility,
		VillageRef:   villageRef(ctx, s.store, facility.Village),
		CreatedByRef: userRef(ctx, s.store, facility.CreatedBy),
	}
}
