package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sanitrack/sanitrack/pkg/model"
)

// Sentinel errors surfaced by every backend. Services translate these into
// the client-facing taxonomy.
var (
	// ErrNotFound means the requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate key")
)

// Page selects a window of a listing. Limit <= 0 disables pagination.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of records to skip.
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role     model.Role
	Search   string // matches name or email, case-insensitive
	IsActive *bool
}

// VillageFilter narrows village listings.
type VillageFilter struct {
	District string
	Search   string // matches name, district or region, case-insensitive
	IsActive *bool
}

// FacilityFilter narrows facility listings.
type FacilityFilter struct {
	Village     string
	Type        model.FacilityType
	Condition   model.Condition
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// InspectionFilter narrows inspection listings.
type InspectionFilter struct {
	Facility    string
	Inspector   string
	Status      model.InspectionStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// IssueFilter narrows issue listings.
type IssueFilter struct {
	Facility    string
	ReportedBy  string
	Status      model.IssueStatus
	Severity    model.Severity
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReportFilter narrows report listings.
type ReportFilter struct {
	Type model.ReportType
}

// UserStore persists user documents. Email uniqueness (case-insensitive) is
// enforced here.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, page Page) ([]*model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// VillageStore persists village documents. (Name, District) uniqueness is
// enforced here.
type VillageStore interface {
	Create(ctx context.Context, village *model.Village) error
	GetByID(ctx context.Context, id string) (*model.Village, error)
	List(ctx context.Context, filter VillageFilter, page Page) ([]*model.Village, int64, error)
	Count(ctx context.Context, filter VillageFilter) (int64, error)
	Update(ctx context.Context, village *model.Village) error
	Delete(ctx context.Context, id string) error
}

// FacilityStore persists facility documents.
type FacilityStore interface {
	Create(ctx context.Context, facility *model.Facility) error
	GetByID(ctx context.Context, id string) (*model.Facility, error)
	List(ctx context.Context, filter FacilityFilter, page Page) ([]*model.Facility, int64, error)
	Count(ctx context.Context, filter FacilityFilter) (int64, error)
	Update(ctx context.Context, facility *model.Facility) error
	Delete(ctx context.Context, id string) error
}

// InspectionStore persists inspection documents.
type InspectionStore interface {
	Create(ctx context.Context, inspection *model.Inspection) error
	GetByID(ctx context.Context, id string) (*model.Inspection, error)
	List(ctx context.Context, filter InspectionFilter, page Page) ([]*model.Inspection, int64, error)
	Count(ctx context.Context, filter InspectionFilter) (int64, error)
	Update(ctx context.Context, inspection *model.Inspection) error
	Delete(ctx context.Context, id string) error
}

// IssueStore persists issue documents.
type IssueStore interface {
	Create(ctx context.Context, issue *model.Issue) error
	GetByID(ctx context.Context, id string) (*model.Issue, error)
	List(ctx context.Context, filter IssueFilter, page Page) ([]*model.Issue, int64, error)
	Count(ctx context.Context, filter IssueFilter) (int64, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id string) error
}

// ReportStore persists report documents.
type ReportStore interface {
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, filter ReportFilter, page Page) ([]*model.Report, int64, error)
	Update(ctx context.Context, report *model.Report) error
	Delete(ctx context.Context, id string) error
}

// Store is the explicitly constructed, passed-in persistence handle. It is
// built once in main and injected into services; nothing imports it
// ambiently.
type Store interface {
	Users() UserStore
	Villages() VillageStore
	Facilities() FacilityStore
	Inspections() InspectionStore
	Issues() IssueStore
	Reports() ReportStore

	HealthCheck(ctx context.Context) error
	Close() error
}

// Config for storage backends.
type Config struct {
	Type string // "memory" or "surreal"

	// SurrealDB config
	SurrealURL  string
	SurrealNS   string
	SurrealDB   string
	SurrealUser string
	SurrealPass string

	// Redis cache config
	RedisURL      string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool
	CacheTTL      time.Duration
	L1CacheSize   int // entries

	// Blob storage config
	BlobType string // "filesystem" or "s3"
	BlobRoot string // filesystem root

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		Type:        "memory",
		SurrealNS:   "sanitrack",
		SurrealDB:   "sanitrack",
		CacheTTL:    5 * time.Minute,
		L1CacheSize: 1024,
		BlobType:    "filesystem",
		BlobRoot:    "/var/lib/sanitrack/uploads",
	}
}
