package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sanitrack/sanitrack/pkg/model"
)

// MemoryStore is an in-memory Store used for tests and local development.
// Writes are serialized by a single mutex; reads return copies so callers
// can never mutate stored state.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]*model.User
	villages    map[string]*model.Village
	facilities  map[string]*model.Facility
	inspections map[string]*model.Inspection
	issues      map[string]*model.Issue
	reports     map[string]*model.Report
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*model.User),
		villages:    make(map[string]*model.Village),
		facilities:  make(map[string]*model.Facility),
		inspections: make(map[string]*model.Inspection),
		issues:      make(map[string]*model.Issue),
		reports:     make(map[string]*model.Report),
	}
}

func (s *MemoryStore) Users() UserStore               { return (*memoryUsers)(s) }
func (s *MemoryStore) Villages() VillageStore         { return (*memoryVillages)(s) }
func (s *MemoryStore) Facilities() FacilityStore      { return (*memoryFacilities)(s) }
func (s *MemoryStore) Inspections() InspectionStore   { return (*memoryInspections)(s) }
func (s *MemoryStore) Issues() IssueStore             { return (*memoryIssues)(s) }
func (s *MemoryStore) Reports() ReportStore           { return (*memoryReports)(s) }
func (s *MemoryStore) HealthCheck(context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }

func paginate[T any](items []T, page Page) []T {
	if page.Limit <= 0 {
		return items
	}
	offset := page.Offset()
	if offset >= len(items) {
		return nil
	}
	end := offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// ---- users ----

type memoryUsers MemoryStore

func (s *memoryUsers) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *memoryUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *memoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryUsers) List(_ context.Context, filter UserFilter, page Page) ([]*model.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*model.User
	for _, user := range s.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !containsFold(user.Name, filter.Search) && !containsFold(user.Email, filter.Search) {
			continue
		}
		matched = append(matched, cloneUser(user))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

func (s *memoryUsers) Update(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *memoryUsers) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ---- villages ----

type memoryVillages MemoryStore

func (s *memoryVillages) Create(_ context.Context, village *model.Village) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.villages {
		if strings.EqualFold(existing.Name, village.Name) && strings.EqualFold(existing.District, village.District) {
			return ErrDuplicate
		}
	}
	s.villages[village.ID] = cloneVillage(village)
	return nil
}

func (s *memoryVillages) GetByID(_ context.Context, id string) (*model.Village, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	village, ok := s.villages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneVillage(village), nil
}

func (s *memoryVillages) match(village *model.Village, filter VillageFilter) bool {
	if filter.District != "" && !strings.EqualFold(village.District, filter.District) {
		return false
	}
	if filter.IsActive != nil && village.IsActive != *filter.IsActive {
		return false
	}
	if filter.Search != "" &&
		!containsFold(village.Name, filter.Search) &&
		!containsFold(village.District, filter.Search) &&
		!containsFold(village.Region, filter.Search) {
		return false
	}
	return true
}

func (s *memoryVillages) List(_ context.Context, filter VillageFilter, page Page) ([]*model.Village, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*model.Village
	for _, village := range s.villages {
		if s.match(village, filter) {
			matched = append(matched, cloneVillage(village))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

func (s *memoryVillages) Count(_ context.Context, filter VillageFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, village := range s.villages {
		if s.match(village, filter) {
			total++
		}
	}
	return total, nil
}

func (s *memoryVillages) Update(_ context.Context, village *model.Village) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.villages[village.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range s.villages {
		if id != village.ID && strings.EqualFold(existing.Name, village.Name) && strings.EqualFold(existing.District, village.District) {
			return ErrDuplicate
		}
	}
	s.villages[village.ID] = cloneVillage(village)
	return nil
}

func (s *memoryVillages) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.villages[id]; !ok {
		return ErrNotFound
	}
	delete(s.villages, id)
	return nil
}

// ---- facilities ----

type memoryFacilities MemoryStore

func (s *memoryFacilities) Create(_ context.Context, facility *model.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facilities[facility.ID] = cloneFacility(facility)
	return nil
}

func (s *memoryFacilities) GetByID(_ context.Context, id string) (*model.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	facility, ok := s.facilities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneFacility(facility), nil
}

func (s *memoryFacilities) match(facility *model.Facility, filter FacilityFilter) bool {
	if filter.Village != "" && facility.Village != filter.Village {
		return false
	}
	if filter.Type != "" && facility.Type != filter.Type {
		return false
	}
	if filter.Condition != "" && facility.Condition != filter.Condition {
		return false
	}
	return inRange(facility.CreatedAt, filter.CreatedFrom, filter.CreatedTo)
}

func (s *memoryFacilities) List(_ context.Context, filter FacilityFilter, page Page) ([]*model.Facility, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*model.Facility
	for _, facility := range s.facilities {
		if s.match(facility, filter) {
			matched = append(matched, cloneFacility(facility))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

func (s *memoryFacilities) Count(_ context.Context, filter FacilityFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, facility := range s.facilities {
		if s.match(facility, filter) {
			total++
		}
	}
	return total, nil
}

func (s *memoryFacilities) Update(_ context.Context, facility *model.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facilities[facility.ID]; !ok {
		return ErrNotFound
	}
	s.facilities[facility.ID] = cloneFacility(facility)
	return nil
}

func (s *memoryFacilities) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facilities[id]; !ok {
		return ErrNotFound
	}
	delete(s.facilities, id)
	return nil
}

// ---- inspections ----

type memoryInspections MemoryStore

func (s *memoryInspections) Create(_ context.Context, inspection *model.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspections[inspection.ID] = cloneInspection(inspection)
	return nil
}

func (s *memoryInspections) GetByID(_ context.Context, id string) (*model.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inspection, ok := s.inspections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneInspection(inspection), nil
}

func (s *memoryInspections) match(inspection *model.Inspection, filter InspectionFilter) bool {
	if filter.Facility != "" && inspection.Facility != filter.Facility {
		return false
	}
	if filter.Inspector != "" && inspection.Inspector != filter.Inspector {
		return false
	}
	if filter.Status != "" && inspection.Status != filter.Status {
		return false
	}
	return inRange(inspection.CreatedAt, filter.CreatedFrom, filter.CreatedTo)
}

func (s *memoryInspections) List(_ context.Context, filter InspectionFilter, page Page) ([]*model.Inspection, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*model.Inspection
	for _, inspection := range s.inspections {
		if s.match(inspection, filter) {
			matched = append(matched, cloneInspection(inspection))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

func (s *memoryInspections) Count(_ context.Context, filter InspectionFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, inspection := range s.inspections {
		if s.match(inspection, filter) {
			total++
		}
	}
	return total, nil
}

func (s *memoryInspections) Update(_ context.Context, inspection *model.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inspections[inspection.ID]; !ok {
		return ErrNotFound
	}
	s.inspections[inspection.ID] = cloneInspection(inspection)
	return nil
}

func (s *memoryInspections) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inspections[id]; !ok {
		return ErrNotFound
	}
	delete(s.inspections, id)
	return nil
}

// ---- issues ----

type memoryIssues MemoryStore

func (s *memoryIssues) Create(_ context.Context, issue *model.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues[issue.ID] = cloneIssue(issue)
	return nil
}

func (s *memoryIssues) GetByID(_ context.Context, id string) (*model.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneIssue(issue), nil
}

func (s *memoryIssues) match(issue *model.Issue, filter IssueFilter) bool {
	if filter.Facility != "" && issue.Facility != filter.Facility {
		return false
	}
	if filter.ReportedBy != "" && issue.ReportedBy != filter.ReportedBy {
		return false
	}
	if filter.Status != "" && issue.Status != filter.Status {
		return false
	}
	if filter.Severity != "" && issue.Severity != filter.Severity {
		return false
	}
	return inRange(issue.CreatedAt, filter.CreatedFrom, filter.CreatedTo)
}

func (s *memoryIssues) List(_ context.Context, filter IssueFilter, page Page) ([]*model.Issue, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*model.Issue
	for _, issue := range s.issues {
		if s.match(issue, filter) {
			matched = append(matched, cloneIssue(issue))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

func (s *memoryIssues) Count(_ context.Context, filter IssueFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, issue := range s.issues {
		if s.match(issue, filter) {
			total++
		}
	}
	return total, nil
}

func (s *memoryIssues) Update(_ context.Context, issue *model.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[issue.ID]; !ok {
		return ErrNotFound
	}
	s.issues[issue.ID] = cloneIssue(issue)
	return nil
}

func (s *memoryIssues) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[id]; !ok {
		return ErrNotFound
	}
	delete(s.issues, id)
	return nil
}

// ---- reports ----

type memoryReports MemoryStore

func (s *memoryReports) Create(_ context.Context, report *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = cloneReport(report)
	return nil
}

func (s *memoryReports) GetByID(_ context.Context, id string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReport(report), nil
}

func (s *memoryReports) List(_ context.Context, filter ReportFilter, page Page) ([]*model.Report, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*model.Report
	for _, report := range s.reports {
		if filter.Type != "" && report.Type != filter.Type {
			continue
		}
		matched = append(matched, cloneReport(report))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

func (s *memoryReports) Update(_ context.Context, report *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ID]; !ok {
		return ErrNotFound
	}
	s.reports[report.ID] = cloneReport(report)
	return nil
}

func (s *memoryReports) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

// ---- clones ----

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneVillage(v *model.Village) *model.Village {
	c := *v
	if v.Latitude != nil {
		lat := *v.Latitude
		c.Latitude = &lat
	}
	if v.Longitude != nil {
		lon := *v.Longitude
		c.Longitude = &lon
	}
	return &c
}

func cloneFacility(f *model.Facility) *model.Facility {
	c := *f
	c.Location = append([]float64(nil), f.Location...)
	c.Images = append([]string(nil), f.Images...)
	if f.LastInspection != nil {
		t := *f.LastInspection
		c.LastInspection = &t
	}
	return &c
}

func cloneInspection(i *model.Inspection) *model.Inspection {
	c := *i
	c.Photos = append([]string(nil), i.Photos...)
	return &c
}

func cloneIssue(i *model.Issue) *model.Issue {
	c := *i
	c.Photos = append([]string(nil), i.Photos...)
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

func cloneReport(r *model.Report) *model.Report {
	c := *r
	if r.Data != nil {
		d := *r.Data
		d.FacilitiesByType = cloneCounts(r.Data.FacilitiesByType)
		d.FacilitiesByState = cloneCounts(r.Data.FacilitiesByState)
		d.InspectionsByStatus = cloneCounts(r.Data.InspectionsByStatus)
		d.IssuesByStatus = cloneCounts(r.Data.IssuesByStatus)
		d.IssuesBySeverity = cloneCounts(r.Data.IssuesBySeverity)
		c.Data = &d
	}
	return &c
}

func cloneCounts(m map[string]int64) map[string]int64 {
	if m == nil {
		return nil
	}
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
