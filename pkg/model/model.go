// Package model defines the persistent entities of the sanitation registry.
//
// One canonical schema per entity. Reference fields hold document ids; the
// expanded read shapes (VillageRef, UserRef) are produced by the services as
// an explicit join after the primary read, never as a side effect of a query.
package model

import "time"

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleInspector       Role = "inspector"
	RoleCommunityLeader Role = "communityLeader"
)

// ValidRole reports whether r is one of the defined roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleInspector, RoleCommunityLeader:
		return true
	}
	return false
}

// User is an account that can authenticate against the API.
// PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Village      string    `json:"village,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Village is a community tracked by the registry. The (Name, District) pair
// is unique, enforced by the store.
type Village struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	District          string    `json:"district"`
	Region            string    `json:"region,omitempty"`
	Population        int       `json:"population,omitempty"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	AssignedInspector string    `json:"assignedInspector,omitempty"`
	Description       string    `json:"description,omitempty"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// FacilityType enumerates the kinds of sanitation facilities.
type FacilityType string

const (
	FacilityToilet    FacilityType = "toilet"
	FacilityWell      FacilityType = "well"
	FacilityWaterTank FacilityType = "water_tank"
	FacilityHandPump  FacilityType = "hand_pump"
)

// ValidFacilityType reports whether t is a defined facility type.
func ValidFacilityType(t FacilityType) bool {
	switch t {
	case FacilityToilet, FacilityWell, FacilityWaterTank, FacilityHandPump:
		return true
	}
	return false
}

// Condition is the assessed physical condition of a facility.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionCritical  Condition = "critical"
)

// ValidCondition reports whether c is a defined condition.
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionCritical:
		return true
	}
	return false
}

// Facility is a physical sanitation installation inside a village.
// CreatedBy is the ownership reference gating non-admin mutation.
type Facility struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Type           FacilityType `json:"type"`
	Village        string       `json:"village"`
	Location       []float64    `json:"location,omitempty"` // [longitude, latitude]
	Condition      Condition    `json:"condition"`
	LastInspection *time.Time   `json:"lastInspection,omitempty"`
	InstalledDate  time.Time    `json:"installedDate"`
	Notes          string       `json:"notes,omitempty"`
	Images         []string     `json:"images,omitempty"`
	CreatedBy      string       `json:"createdBy"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// InspectionStatus is derived from the inspection score and never supplied
// by clients.
type InspectionStatus string

const (
	StatusGood           InspectionStatus = "good"
	StatusNeedsAttention InspectionStatus = "needs_attention"
	StatusCritical       InspectionStatus = "critical"
)

// Inspection score bounds.
const (
	MinScore = 1
	MaxScore = 10
)

// StatusForScore derives the inspection status from a 1-10 score.
// The derivation is the single source of truth: status is recomputed with
// every score write so the two fields can never disagree.
func StatusForScore(score int) InspectionStatus {
	switch {
	case score <= 3:
		return StatusCritical
	case score <= 6:
		return StatusNeedsAttention
	default:
		return StatusGood
	}
}

// Inspection is a scored assessment of a facility by an inspector.
// Inspector is the ownership reference.
type Inspection struct {
	ID                string           `json:"id"`
	Facility          string           `json:"facility"`
	Inspector         string           `json:"inspector"`
	Date              time.Time        `json:"date"`
	Score             int              `json:"score"`
	Status            InspectionStatus `json:"status"`
	Notes             string           `json:"notes,omitempty"`
	Recommendations   string           `json:"recommendations,omitempty"`
	Photos            []string         `json:"photos,omitempty"`
	NextInspectionDue time.Time        `json:"nextInspectionDue"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Severity grades a reported issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether s is a defined severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IssueStatus tracks the lifecycle of a reported issue.
type IssueStatus string

const (
	IssuePending    IssueStatus = "pending"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
)

// ValidIssueStatus reports whether s is a defined issue status.
func ValidIssueStatus(s IssueStatus) bool {
	switch s {
	case IssuePending, IssueInProgress, IssueResolved:
		return true
	}
	return false
}

// Issue is a community-reported problem on a facility. ReportedBy is the
// ownership reference; an empty value means the report was anonymous and
// only an admin may mutate the record. AssignedTo is a typed optional user
// reference.
type Issue struct {
	ID              string      `json:"id"`
	Facility        string      `json:"facility"`
	ReportedBy      string      `json:"reportedBy,omitempty"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Severity        Severity    `json:"severity"`
	Status          IssueStatus `json:"status"`
	AssignedTo      string      `json:"assignedTo,omitempty"`
	Photos          []string    `json:"photos,omitempty"`
	ResolutionNotes string      `json:"resolutionNotes,omitempty"`
	ResolvedAt      *time.Time  `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ReportType enumerates the supported report periods.
type ReportType string

const (
	ReportMonthly   ReportType = "monthly"
	ReportQuarterly ReportType = "quarterly"
	ReportYearly    ReportType = "yearly"
	ReportCustom    ReportType = "custom"
)

// ValidReportType reports whether t is a defined report type.
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportMonthly, ReportQuarterly, ReportYearly, ReportCustom:
		return true
	}
	return false
}

// ReportFormat enumerates the supported output formats.
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatCSV  ReportFormat = "csv"
	FormatXLSX ReportFormat = "xlsx"
)

// ValidReportFormat reports whether f is a defined format.
func ValidReportFormat(f ReportFormat) bool {
	switch f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return true
	}
	return false
}

// DateRange bounds the data included in a report.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// ReportData is the computed aggregate blob stored with a report.
type ReportData struct {
	Villages            int64            `json:"villages"`
	Facilities          int64            `json:"facilities"`
	FacilitiesByType    map[string]int64 `json:"facilitiesByType"`
	FacilitiesByState   map[string]int64 `json:"facilitiesByCondition"`
	Inspections         int64            `json:"inspections"`
	InspectionsByStatus map[string]int64 `json:"inspectionsByStatus"`
	AverageScore        float64          `json:"averageScore"`
	Issues              int64            `json:"issues"`
	IssuesByStatus      map[string]int64 `json:"issuesByStatus"`
	IssuesBySeverity    map[string]int64 `json:"issuesBySeverity"`
}

// Report is a stored analytics snapshot over a date range.
type Report struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Type        ReportType   `json:"type"`
	GeneratedBy string       `json:"generatedBy"`
	DateRange   DateRange    `json:"dateRange"`
	Data        *ReportData  `json:"data"`
	Format      ReportFormat `json:"format"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// VillageRef is the expanded shape of a village reference.
type VillageRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	District string `json:"district"`
}

// UserRef is the expanded shape of a user reference.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
