package service

import (
	"context"

	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/validation"
)

// VillageService manages villages. Creation and mutation are admin routes.
type VillageService struct {
	store storage.Store
}

// NewVillageService creates a VillageService.
func NewVillageService(store storage.Store) *VillageService {
	return &VillageService{store: store}
}

// VillageDetail is a village with its assigned inspector resolved.
type VillageDetail struct {
	model.Village
	AssignedInspectorRef *model.UserRef `json:"assignedInspectorRef,omitempty"`
}

// CreateVillageInput is the payload for village creation.
type CreateVillageInput struct {
	Name              string   `json:"name"`
	District          string   `json:"district"`
	Region            string   `json:"region"`
	Population        int      `json:"population"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	AssignedInspector string   `json:"assignedInspector"`
	Description       string   `json:"description"`
}

func validateCoordinates(v *validation.Collector, lat, lon *float64) {
	if lat != nil && (*lat < -90 || *lat > 90) {
		v.Add("latitude", "must be between -90 and 90")
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		v.Add("longitude", "must be between -180 and 180")
	}
}

// Create validates and persists a village. A duplicate (name, district) pair
// maps to Conflict.
func (s *VillageService) Create(ctx context.Context, in CreateVillageInput) (*VillageDetail, error) {
	var v validation.Collector
	v.Require("name", in.Name)
	v.Require("district", in.District)
	if in.Population < 0 {
		v.Add("population", "must not be negative")
	}
	validateCoordinates(&v, in.Latitude, in.Longitude)
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	if in.AssignedInspector != "" {
		if _, err := s.store.Users().GetByID(ctx, in.AssignedInspector); err != nil {
			return nil, refErr(err, "assigned inspector")
		}
	}

	ts := now().UTC()
	village := &model.Village{
		ID:                newID(),
		Name:              in.Name,
		District:          in.District,
		Region:            in.Region,
		Population:        in.Population,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		AssignedInspector: in.AssignedInspector,
		Description:       in.Description,
		IsActive:          true,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}
	if err := s.store.Villages().Create(ctx, village); err != nil {
		return nil, storeErr(err, "village", "village already exists in this district")
	}
	return s.detail(ctx, village), nil
}

// Get returns one village with references resolved.
func (s *VillageService) Get(ctx context.Context, id string) (*VillageDetail, error) {
	village, err := s.store.Villages().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "village", "")
	}
	return s.detail(ctx, village), nil
}

// List returns villages matching the filter.
func (s *VillageService) List(ctx context.Context, filter storage.VillageFilter, page storage.Page) ([]*model.Village, int64, error) {
	villages, total, err := s.store.Villages().List(ctx, filter, page)
	if err != nil {
		return nil, 0, errs.Internal(err)
	}
	return villages, total, nil
}

// UpdateVillageInput carries a partial village update.
type UpdateVillageInput struct {
	Name              *string  `json:"name"`
	District          *string  `json:"district"`
	Region            *string  `json:"region"`
	Population        *int     `json:"population"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	AssignedInspector *string  `json:"assignedInspector"`
	Description       *string  `json:"description"`
	IsActive          *bool    `json:"isActive"`
}

// Update applies a partial update.
func (s *VillageService) Update(ctx context.Context, id string, in UpdateVillageInput) (*VillageDetail, error) {
	var v validation.Collector
	if in.Name != nil {
		v.Require("name", *in.Name)
	}
	if in.District != nil {
		v.Require("district", *in.District)
	}
	if in.Population != nil && *in.Population < 0 {
		v.Add("population", "must not be negative")
	}
	validateCoordinates(&v, in.Latitude, in.Longitude)
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	village, err := s.store.Villages().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "village", "")
	}

	if in.AssignedInspector != nil && *in.AssignedInspector != "" {
		if _, err := s.store.Users().GetByID(ctx, *in.AssignedInspector); err != nil {
			return nil, refErr(err, "assigned inspector")
		}
	}

	if in.Name != nil {
		village.Name = *in.Name
	}
	if in.District != nil {
		village.District = *in.District
	}
	if in.Region != nil {
		village.Region = *in.Region
	}
	if in.Population != nil {
		village.Population = *in.Population
	}
	if in.Latitude != nil {
		village.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		village.Longitude = in.Longitude
	}
	if in.AssignedInspector != nil {
		village.AssignedInspector = *in.AssignedInspector
	}
	if in.Description != nil {
		village.Description = *in.Description
	}
	if in.IsActive != nil {
		village.IsActive = *in.IsActive
	}
	village.UpdatedAt = now().UTC()

	if err := s.store.Villages().Update(ctx, village); err != nil {
		return nil, storeErr(err, "village", "village already exists in this district")
	}
	return s.detail(ctx, village), nil
}

// Delete removes a village. Villages with facilities cannot be deleted.
func (s *VillageService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Villages().GetByID(ctx, id); err != nil {
		return storeErr(err, "village", "")
	}
	dependents, err := s.store.Facilities().Count(ctx, storage.FacilityFilter{Village: id})
	if err != nil {
		return errs.Internal(err)
	}
	if dependents > 0 {
		return errs.Conflict("village has facilities; delete or reassign them first")
	}
	if err := s.store.Villages().Delete(ctx, id); err != nil {
		return storeErr(err, "village", "")
	}
	return nil
}

func (s *VillageService) detail(ctx context.Context, village *model.Village) *VillageDetail {
	return &VillageDetail{
		Village:              *village,
		AssignedInspectorRef: userRef(ctx, s.store, village.AssignedInspector),
	}
}
