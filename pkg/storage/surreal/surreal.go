// Package surreal implements the storage interfaces on SurrealDB over its
// websocket RPC API. Records are stored one table per entity with the JSON
// shape of the model structs; uniqueness constraints are enforced by unique
// indexes defined at startup. The configured URL is the RPC endpoint, e.g.
// ws://localhost:8000/rpc.
package surreal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	surrealdb "github.com/surrealdb/surrealdb.go"

	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

const (
	tableUsers       = "users"
	tableVillages    = "villages"
	tableFacilities  = "facilities"
	tableInspections = "inspections"
	tableIssues      = "issues"
	tableReports     = "reports"
)

// Store is the SurrealDB-backed storage.Store.
type Store struct {
	db *surrealdb.DB
}

// New connects to SurrealDB, authenticates, selects the namespace and
// database, and defines the unique indexes the API relies on.
func New(ctx context.Context, cfg storage.Config) (*Store, error) {
	db, err := surrealdb.New(cfg.SurrealURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}
	if _, err := db.Signin(map[string]interface{}{
		"user": cfg.SurrealUser,
		"pass": cfg.SurrealPass,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("surrealdb signin failed: %w", err)
	}
	if _, err := db.Use(cfg.SurrealNS, cfg.SurrealDB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to select surrealdb namespace: %w", err)
	}

	s := &Store{db: db}
	if err := s.defineIndexes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) defineIndexes() error {
	statements := []string{
		"DEFINE INDEX users_email ON TABLE users COLUMNS email UNIQUE;",
		"DEFINE INDEX villages_name_district ON TABLE villages COLUMNS name, district UNIQUE;",
	}
	for _, stmt := range statements {
		if _, err := s.query(stmt, nil); err != nil {
			return fmt.Errorf("failed to define index: %w", err)
		}
	}
	return nil
}

func (s *Store) Users() storage.UserStore             { return &userStore{s} }
func (s *Store) Villages() storage.VillageStore       { return &villageStore{s} }
func (s *Store) Facilities() storage.FacilityStore    { return &facilityStore{s} }
func (s *Store) Inspections() storage.InspectionStore { return &inspectionStore{s} }
func (s *Store) Issues() storage.IssueStore           { return &issueStore{s} }
func (s *Store) Reports() storage.ReportStore         { return &reportStore{s} }

// HealthCheck runs a trivial statement against the database.
func (s *Store) HealthCheck(context.Context) error {
	if _, err := s.query("INFO FOR DB;", nil); err != nil {
		return fmt.Errorf("surrealdb unhealthy: %w", err)
	}
	return nil
}

// Close tears down the websocket connection.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// queryResult is the per-statement envelope of a query RPC response.
type queryResult struct {
	Status string          `json:"status"`
	Detail string          `json:"detail"`
	Result json.RawMessage `json:"result"`
}

// query runs one statement and returns its result set. The driver hands the
// response back as generic JSON, so it is remarshalled into the typed
// envelope before the status is checked.
func (s *Store) query(sql string, vars map[string]interface{}) (json.RawMessage, error) {
	raw, err := s.db.Query(sql, vars)
	if err != nil {
		return nil, fmt.Errorf("surrealdb request failed: %w", err)
	}
	return decodeResponse(raw)
}

func decodeResponse(raw interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to remarshal surrealdb response: %w", err)
	}
	var results []queryResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to decode surrealdb response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("empty surrealdb response")
	}
	res := results[0]
	if !strings.EqualFold(res.Status, "OK") {
		// Unique index violations come back as a failed statement whose
		// detail names the index, not as a distinct error shape.
		if strings.Contains(strings.ToLower(res.Detail), "already contains") {
			return nil, storage.ErrDuplicate
		}
		return nil, fmt.Errorf("surrealdb statement failed: %s", res.Detail)
	}
	return res.Result, nil
}

// escape makes a value safe for inclusion in a single-quoted SurrealQL
// string literal.
func escape(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}

// trimRecordID strips the "table:" prefix SurrealDB prepends to record ids,
// including the bracket quoting it applies to ids with dashes.
func trimRecordID(id, table string) string {
	id = strings.TrimPrefix(id, table+":")
	id = strings.TrimPrefix(id, "⟨")
	id = strings.TrimSuffix(id, "⟩")
	return strings.Trim(id, "`")
}

// decodeRows unmarshals a result set into typed rows. A null result decodes
// to an empty slice.
func decodeRows[T any](result json.RawMessage) ([]*T, error) {
	var rows []*T
	if err := json.Unmarshal(result, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}

type condition struct {
	clauses []string
}

func (c *condition) eq(field, value string) {
	if value != "" {
		c.clauses = append(c.clauses, fmt.Sprintf("%s = '%s'", field, escape(value)))
	}
}

func (c *condition) boolEq(field string, value *bool) {
	if value != nil {
		c.clauses = append(c.clauses, fmt.Sprintf("%s = %t", field, *value))
	}
}

func (c *condition) timeRange(field string, from, to *time.Time) {
	if from != nil {
		c.clauses = append(c.clauses, fmt.Sprintf("%s >= '%s'", field, from.UTC().Format(time.RFC3339Nano)))
	}
	if to != nil {
		c.clauses = append(c.clauses, fmt.Sprintf("%s <= '%s'", field, to.UTC().Format(time.RFC3339Nano)))
	}
}

func (c *condition) contains(fields []string, value string) {
	if value == "" {
		return
	}
	needle := escape(strings.ToLower(value))
	var parts []string
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("string::lowercase(%s) CONTAINS '%s'", field, needle))
	}
	c.clauses = append(c.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (c *condition) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func listQuery(table, where string, page storage.Page) string {
	q := fmt.Sprintf("SELECT * FROM %s%s ORDER BY createdAt DESC", table, where)
	if page.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d START %d", page.Limit, page.Offset())
	}
	return q + ";"
}

func countQuery(table, where string) string {
	return fmt.Sprintf("SELECT count() AS total FROM %s%s GROUP ALL;", table, where)
}

func (s *Store) count(table, where string) (int64, error) {
	result, err := s.query(countQuery(table, where), nil)
	if err != nil {
		return 0, err
	}
	rows, err := decodeRows[struct {
		Total int64 `json:"total"`
	}](result)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func thingVars(table, id string) map[string]interface{} {
	return map[string]interface{}{"tb": table, "id": id}
}

func createOne[T any](s *Store, table, id string, entity *T) error {
	_, err := s.query("CREATE type::thing($tb, $id) CONTENT $data;", map[string]interface{}{
		"tb": table, "id": id, "data": entity,
	})
	return err
}

func getByID[T any](s *Store, table, id string, fixID func(*T)) (*T, error) {
	result, err := s.query("SELECT * FROM type::thing($tb, $id);", thingVars(table, id))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[T](result)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	fixID(rows[0])
	return rows[0], nil
}

func listRows[T any](s *Store, table, where string, page storage.Page, fixID func(*T)) ([]*T, int64, error) {
	result, err := s.query(listQuery(table, where, page), nil)
	if err != nil {
		return nil, 0, err
	}
	rows, err := decodeRows[T](result)
	if err != nil {
		return nil, 0, err
	}
	for _, row := range rows {
		fixID(row)
	}
	total, err := s.count(table, where)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func replaceOne[T any](s *Store, table, id string, entity *T, fixID func(*T)) error {
	if _, err := getByID(s, table, id, fixID); err != nil {
		return err
	}
	_, err := s.query("UPDATE type::thing($tb, $id) CONTENT $data;", map[string]interface{}{
		"tb": table, "id": id, "data": entity,
	})
	return err
}

func deleteOne[T any](s *Store, table, id string, fixID func(*T)) error {
	if _, err := getByID(s, table, id, fixID); err != nil {
		return err
	}
	_, err := s.query("DELETE type::thing($tb, $id);", thingVars(table, id))
	return err
}

// ---- users ----

type userStore struct{ s *Store }

func fixUserID(u *model.User) { u.ID = trimRecordID(u.ID, tableUsers) }

func (st *userStore) Create(_ context.Context, user *model.User) error {
	return createOne(st.s, tableUsers, user.ID, user)
}

func (st *userStore) GetByID(_ context.Context, id string) (*model.User, error) {
	return getByID(st.s, tableUsers, id, fixUserID)
}

func (st *userStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE string::lowercase(email) = '%s' LIMIT 1;",
		tableUsers, escape(strings.ToLower(email)),
	)
	result, err := st.s.query(query, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[model.User](result)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	fixUserID(rows[0])
	return rows[0], nil
}

func (st *userStore) List(_ context.Context, filter storage.UserFilter, page storage.Page) ([]*model.User, int64, error) {
	var cond condition
	cond.eq("role", string(filter.Role))
	cond.boolEq("isActive", filter.IsActive)
	cond.contains([]string{"name", "email"}, filter.Search)
	return listRows(st.s, tableUsers, cond.where(), page, fixUserID)
}

func (st *userStore) Update(_ context.Context, user *model.User) error {
	return replaceOne(st.s, tableUsers, user.ID, user, fixUserID)
}

func (st *userStore) Delete(_ context.Context, id string) error {
	return deleteOne(st.s, tableUsers, id, fixUserID)
}

// ---- villages ----

type villageStore struct{ s *Store }

func fixVillageID(v *model.Village) { v.ID = trimRecordID(v.ID, tableVillages) }

func villageWhere(filter storage.VillageFilter) string {
	var cond condition
	cond.eq("district", filter.District)
	cond.boolEq("isActive", filter.IsActive)
	cond.contains([]string{"name", "district", "region"}, filter.Search)
	return cond.where()
}

func (st *villageStore) Create(_ context.Context, village *model.Village) error {
	return createOne(st.s, tableVillages, village.ID, village)
}

func (st *villageStore) GetByID(_ context.Context, id string) (*model.Village, error) {
	return getByID(st.s, tableVillages, id, fixVillageID)
}

func (st *villageStore) List(_ context.Context, filter storage.VillageFilter, page storage.Page) ([]*model.Village, int64, error) {
	return listRows(st.s, tableVillages, villageWhere(filter), page, fixVillageID)
}

func (st *villageStore) Count(_ context.Context, filter storage.VillageFilter) (int64, error) {
	return st.s.count(tableVillages, villageWhere(filter))
}

func (st *villageStore) Update(_ context.Context, village *model.Village) error {
	return replaceOne(st.s, tableVillages, village.ID, village, fixVillageID)
}

func (st *villageStore) Delete(_ context.Context, id string) error {
	return deleteOne(st.s, tableVillages, id, fixVillageID)
}

// ---- facilities ----

type facilityStore struct{ s *Store }

func fixFacilityID(f *model.Facility) { f.ID = trimRecordID(f.ID, tableFacilities) }

func facilityWhere(filter storage.FacilityFilter) string {
	var cond condition
	cond.eq("village", filter.Village)
	cond.eq("type", string(filter.Type))
	cond.eq("condition", string(filter.Condition))
	cond.timeRange("createdAt", filter.CreatedFrom, filter.CreatedTo)
	return cond.where()
}

func (st *facilityStore) Create(_ context.Context, facility *model.Facility) error {
	return createOne(st.s, tableFacilities, facility.ID, facility)
}

func (st *facilityStore) GetByID(_ context.Context, id string) (*model.Facility, error) {
	return getByID(st.s, tableFacilities, id, fixFacilityID)
}

func (st *facilityStore) List(_ context.Context, filter storage.FacilityFilter, page storage.Page) ([]*model.Facility, int64, error) {
	return listRows(st.s, tableFacilities, facilityWhere(filter), page, fixFacilityID)
}

func (st *facilityStore) Count(_ context.Context, filter storage.FacilityFilter) (int64, error) {
	return st.s.count(tableFacilities, facilityWhere(filter))
}

func (st *facilityStore) Update(_ context.Context, facility *model.Facility) error {
	return replaceOne(st.s, tableFacilities, facility.ID, facility, fixFacilityID)
}

func (st *facilityStore) Delete(_ context.Context, id string) error {
	return deleteOne(st.s, tableFacilities, id, fixFacilityID)
}

// ---- inspections ----

type inspectionStore struct{ s *Store }

func fixInspectionID(i *model.Inspection) { i.ID = trimRecordID(i.ID, tableInspections) }

func inspectionWhere(filter storage.InspectionFilter) string {
	var cond condition
	cond.eq("facility", filter.Facility)
	cond.eq("inspector", filter.Inspector)
	cond.eq("status", string(filter.Status))
	cond.timeRange("createdAt", filter.CreatedFrom, filter.CreatedTo)
	return cond.where()
}

func (st *inspectionStore) Create(_ context.Context, inspection *model.Inspection) error {
	return createOne(st.s, tableInspections, inspection.ID, inspection)
}

func (st *inspectionStore) GetByID(_ context.Context, id string) (*model.Inspection, error) {
	return getByID(st.s, tableInspections, id, fixInspectionID)
}

func (st *inspectionStore) List(_ context.Context, filter storage.InspectionFilter, page storage.Page) ([]*model.Inspection, int64, error) {
	return listRows(st.s, tableInspections, inspectionWhere(filter), page, fixInspectionID)
}

func (st *inspectionStore) Count(_ context.Context, filter storage.InspectionFilter) (int64, error) {
	return st.s.count(tableInspections, inspectionWhere(filter))
}

func (st *inspectionStore) Update(_ context.Context, inspection *model.Inspection) error {
	return replaceOne(st.s, tableInspections, inspection.ID, inspection, fixInspectionID)
}

func (st *inspectionStore) Delete(_ context.Context, id string) error {
	return deleteOne(st.s, tableInspections, id, fixInspectionID)
}

// ---- issues ----

type issueStore struct{ s *Store }

func fixIssueID(i *model.Issue) { i.ID = trimRecordID(i.ID, tableIssues) }

func issueWhere(filter storage.IssueFilter) string {
	var cond condition
	cond.eq("facility", filter.Facility)
	cond.eq("reportedBy", filter.ReportedBy)
	cond.eq("status", string(filter.Status))
	cond.eq("severity", string(filter.Severity))
	cond.timeRange("createdAt", filter.CreatedFrom, filter.CreatedTo)
	return cond.where()
}

func (st *issueStore) Create(_ context.Context, issue *model.Issue) error {
	return createOne(st.s, tableIssues, issue.ID, issue)
}

func (st *issueStore) GetByID(_ context.Context, id string) (*model.Issue, error) {
	return getByID(st.s, tableIssues, id, fixIssueID)
}

func (st *issueStore) List(_ context.Context, filter storage.IssueFilter, page storage.Page) ([]*model.Issue, int64, error) {
	return listRows(st.s, tableIssues, issueWhere(filter), page, fixIssueID)
}

func (st *issueStore) Count(_ context.Context, filter storage.IssueFilter) (int64, error) {
	return st.s.count(tableIssues, issueWhere(filter))
}

func (st *issueStore) Update(_ context.Context, issue *model.Issue) error {
	return replaceOne(st.s, tableIssues, issue.ID, issue, fixIssueID)
}

func (st *issueStore) Delete(_ context.Context, id string) error {
	return deleteOne(st.s, tableIssues, id, fixIssueID)
}

// ---- reports ----

type reportStore struct{ s *Store }

func fixReportID(r *model.Report) { r.ID = trimRecordID(r.ID, tableReports) }

func (st *reportStore) Create(_ context.Context, report *model.Report) error {
	return createOne(st.s, tableReports, report.ID, report)
}

func (st *reportStore) GetByID(_ context.Context, id string) (*model.Report, error) {
	return getByID(st.s, tableReports, id, fixReportID)
}

func (st *reportStore) List(_ context.Context, filter storage.ReportFilter, page storage.Page) ([]*model.Report, int64, error) {
	var cond condition
	cond.eq("type", string(filter.Type))
	return listRows(st.s, tableReports, cond.where(), page, fixReportID)
}

func (st *reportStore) Update(_ context.Context, report *model.Report) error {
	return replaceOne(st.s, tableReports, report.ID, report, fixReportID)
}

func (st *reportStore) Delete(_ context.Context, id string) error {
	return deleteOne(st.s, tableReports, id, fixReportID)
}
