package service

import (
	"context"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/validation"
)

// IssueService manages community-reported problems. The reporting user
// becomes the record owner; anonymous reports carry no owner and are
// admin-only to mutate.
type IssueService struct {
	store storage.Store
}

// NewIssueService creates an IssueService.
func NewIssueService(store storage.Store) *IssueService {
	return &IssueService{store: store}
}

// IssueDetail is an issue with its references resolved.
type IssueDetail struct {
	model.Issue
	FacilityName  string         `json:"facilityName,omitempty"`
	ReportedByRef *model.UserRef `json:"reportedByRef,omitempty"`
	AssignedToRef *model.UserRef `json:"assignedToRef,omitempty"`
}

// CreateIssueInput is the payload for reporting an issue.
type CreateIssueInput struct {
	Facility    string         `json:"facility"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    model.Severity `json:"severity"`
	Photos      []string       `json:"photos"`
	Anonymous   bool           `json:"anonymous"`
}

func validateSeverity(v *validation.Collector, severity model.Severity) {
	v.OneOf("severity", string(severity), model.ValidSeverity(severity),
		string(model.SeverityLow), string(model.SeverityMedium),
		string(model.SeverityHigh), string(model.SeverityCritical))
}

// Create validates and persists an issue reported by the caller.
func (s *IssueService) Create(ctx context.Context, identity *auth.Identity, in CreateIssueInput) (*IssueDetail, error) {
	if identity == nil {
		return nil, errs.Unauthenticated("authentication required")
	}

	var v validation.Collector
	v.Require("facility", in.Facility)
	v.Require("title", in.Title)
	v.Require("description", in.Description)
	v.Require("severity", string(in.Severity))
	validateSeverity(&v, in.Severity)
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	if _, err := s.store.Facilities().GetByID(ctx, in.Facility); err != nil {
		return nil, refErr(err, "facility")
	}

	reportedBy := identity.ID
	if in.Anonymous {
		reportedBy = ""
	}

	ts := now().UTC()
	issue := &model.Issue{
		ID:          newID(),
		Facility:    in.Facility,
		ReportedBy:  reportedBy,
		Title:       in.Title,
		Description: in.Description,
		Severity:    in.Severity,
		Status:      model.IssuePending,
		Photos:      in.Photos,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.store.Issues().Create(ctx, issue); err != nil {
		return nil, storeErr(err, "issue", "issue already exists")
	}
	return s.detail(ctx, issue), nil
}

// Get returns one issue with references resolved.
func (s *IssueService) Get(ctx context.Context, id string) (*IssueDetail, error) {
	issue, err := s.store.Issues().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "issue", "")
	}
	return s.detail(ctx, issue), nil
}

// List returns issues matching the filter.
func (s *IssueService) List(ctx context.Context, filter storage.IssueFilter, page storage.Page) ([]*model.Issue, int64, error) {
	issues, total, err := s.store.Issues().List(ctx, filter, page)
	if err != nil {
		return nil, 0, errs.Internal(err)
	}
	return issues, total, nil
}

// UpdateIssueInput carries a partial issue update.
type UpdateIssueInput struct {
	Title           *string            `json:"title"`
	Description     *string            `json:"description"`
	Severity        *model.Severity    `json:"severity"`
	Status          *model.IssueStatus `json:"status"`
	AssignedTo      *string            `json:"assignedTo"`
	Photos          []string           `json:"photos"`
	ResolutionNotes *string            `json:"resolutionNotes"`
}

// Update applies a partial update after the ownership check. Moving to
// resolved stamps resolvedAt; moving away from resolved clears it.
func (s *IssueService) Update(ctx context.Context, identity *auth.Identity, id string, in UpdateIssueInput) (*IssueDetail, error) {
	var v validation.Collector
	if in.Title != nil {
		v.Require("title", *in.Title)
	}
	if in.Severity != nil {
		validateSeverity(&v, *in.Severity)
	}
	if in.Status != nil {
		v.OneOf("status", string(*in.Status), model.ValidIssueStatus(*in.Status),
			string(model.IssuePending), string(model.IssueInProgress), string(model.IssueResolved))
	}
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	issue, err := s.store.Issues().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "issue", "")
	}
	if !auth.CanMutate(identity, issue.ReportedBy) {
		return nil, errs.Forbidden("not allowed to modify this issue")
	}

	if in.AssignedTo != nil && *in.AssignedTo != "" {
		if _, err := s.store.Users().GetByID(ctx, *in.AssignedTo); err != nil {
			return nil, refErr(err, "assigned user")
		}
	}

	if in.Title != nil {
		issue.Title = *in.Title
	}
	if in.Description != nil {
		issue.Description = *in.Description
	}
	if in.Severity != nil {
		issue.Severity = *in.Severity
	}
	if in.AssignedTo != nil {
		issue.AssignedTo = *in.AssignedTo
	}
	if in.Photos != nil {
		issue.Photos = in.Photos
	}
	if in.ResolutionNotes != nil {
		issue.ResolutionNotes = *in.ResolutionNotes
	}

	ts := now().UTC()
	if in.Status != nil && *in.Status != issue.Status {
		switch {
		case *in.Status == model.IssueResolved:
			issue.ResolvedAt = &ts
		case issue.Status == model.IssueResolved:
			issue.ResolvedAt = nil
		}
		issue.Status = *in.Status
	}
	issue.UpdatedAt = ts

	if err := s.store.Issues().Update(ctx, issue); err != nil {
		return nil, storeErr(err, "issue", "")
	}
	return s.detail(ctx, issue), nil
}

// Delete removes an issue after the ownership check.
func (s *IssueService) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	issue, err := s.store.Issues().GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "issue", "")
	}
	if !auth.CanMutate(identity, issue.ReportedBy) {
		return errs.Forbidden("not allowed to delete this issue")
	}
	if err := s.store.Issues().Delete(ctx, id); err != nil {
		return storeErr(err, "issue", "")
	}
	return nil
}

func (s *IssueService) detail(ctx context.Context, issue *model.Issue) *IssueDetail {
	detail := &IssueDetail{
		Issue:         *issue,
		ReportedByRef: userRef(ctx, s.store, issue.ReportedBy),
		AssignedToRef: userRef(ctx, s.store, issue.AssignedTo),
	}
	if facility, err := s.store.Facilities().GetByID(ctx, issue.Facility); err == nil {
		detail.FacilityName = facility.Name
	}
	return detail
}
