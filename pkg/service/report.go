package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/validation"
)

// ReportService generates, stores and renders analytics snapshots.
type ReportService struct {
	store storage.Store
}

// NewReportService creates a ReportService.
func NewReportService(store storage.Store) *ReportService {
	return &ReportService{store: store}
}

// GenerateReportInput is the payload for report generation.
type GenerateReportInput struct {
	Title     string             `json:"title"`
	Type      model.ReportType   `json:"type"`
	Format    model.ReportFormat `json:"format"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
}

func reportRange(in GenerateReportInput, ref time.Time) (model.DateRange, error) {
	switch in.Type {
	case model.ReportMonthly:
		return model.DateRange{Start: ref.AddDate(0, -1, 0), End: ref}, nil
	case model.ReportQuarterly:
		return model.DateRange{Start: ref.AddDate(0, -3, 0), End: ref}, nil
	case model.ReportYearly:
		return model.DateRange{Start: ref.AddDate(-1, 0, 0), End: ref}, nil
	case model.ReportCustom:
		var v validation.Collector
		if in.StartDate.IsZero() {
			v.Add("startDate", "is required for custom reports")
		}
		if in.EndDate.IsZero() {
			v.Add("endDate", "is required for custom reports")
		}
		if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
			v.Add("endDate", "must not be before startDate")
		}
		if !v.Ok() {
			return model.DateRange{}, errs.Validation(v.Violations())
		}
		return model.DateRange{Start: in.StartDate, End: in.EndDate}, nil
	default:
		return model.DateRange{}, errs.Validation([]string{"type: must be one of: monthly, quarterly, yearly, custom"})
	}
}

// Generate computes the aggregates for the requested range and stores the
// resulting report.
func (s *ReportService) Generate(ctx context.Context, identity *auth.Identity, in GenerateReportInput) (*model.Report, error) {
	if identity == nil {
		return nil, errs.Unauthenticated("authentication required")
	}

	var v validation.Collector
	v.Require("title", in.Title)
	v.Require("type", string(in.Type))
	if in.Format != "" {
		v.OneOf("format", string(in.Format), model.ValidReportFormat(in.Format),
			string(model.FormatJSON), string(model.FormatCSV), string(model.FormatXLSX))
	}
	if !v.Ok() {
		return nil, errs.Validation(v.Violations())
	}

	dateRange, err := reportRange(in, now().UTC())
	if err != nil {
		return nil, err
	}

	data, err := s.aggregate(ctx, dateRange)
	if err != nil {
		return nil, err
	}

	format := in.Format
	if format == "" {
		format = model.FormatJSON
	}

	ts := now().UTC()
	report := &model.Report{
		ID:          newID(),
		Title:       in.Title,
		Type:        in.Type,
		GeneratedBy: identity.ID,
		DateRange:   dateRange,
		Data:        data,
		Format:      format,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.store.Reports().Create(ctx, report); err != nil {
		return nil, storeErr(err, "report", "report already exists")
	}
	return report, nil
}

// Regenerate recomputes the aggregates for a stored report with its original
// date range.
func (s *ReportService) Regenerate(ctx context.Context, id string) (*model.Report, error) {
	report, err := s.store.Reports().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "report", "")
	}

	data, err := s.aggregate(ctx, report.DateRange)
	if err != nil {
		return nil, err
	}
	report.Data = data
	report.UpdatedAt = now().UTC()

	if err := s.store.Reports().Update(ctx, report); err != nil {
		return nil, storeErr(err, "report", "")
	}
	return report, nil
}

// Get returns one report.
func (s *ReportService) Get(ctx context.Context, id string) (*model.Report, error) {
	report, err := s.store.Reports().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "report", "")
	}
	return report, nil
}

// List returns reports matching the filter.
func (s *ReportService) List(ctx context.Context, filter storage.ReportFilter, page storage.Page) ([]*model.Report, int64, error) {
	reports, total, err := s.store.Reports().List(ctx, filter, page)
	if err != nil {
		return nil, 0, errs.Internal(err)
	}
	return reports, total, nil
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.store.Reports().Delete(ctx, id); err != nil {
		return storeErr(err, "report", "")
	}
	return nil
}

func (s *ReportService) aggregate(ctx context.Context, dateRange model.DateRange) (*model.ReportData, error) {
	from, to := dateRange.Start, dateRange.End
	data := &model.ReportData{
		FacilitiesByType:    make(map[string]int64),
		FacilitiesByState:   make(map[string]int64),
		InspectionsByStatus: make(map[string]int64),
		IssuesByStatus:      make(map[string]int64),
		IssuesBySeverity:    make(map[string]int64),
	}

	villages, err := s.store.Villages().Count(ctx, storage.VillageFilter{})
	if err != nil {
		return nil, errs.Internal(err)
	}
	data.Villages = villages

	facilities, err := s.store.Facilities().Count(ctx, storage.FacilityFilter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return nil, errs.Internal(err)
	}
	data.Facilities = facilities

	for _, t := range []model.FacilityType{model.FacilityToilet, model.FacilityWell, model.FacilityWaterTank, model.FacilityHandPump} {
		count, err := s.store.Facilities().Count(ctx, storage.FacilityFilter{Type: t, CreatedFrom: &from, CreatedTo: &to})
		if err != nil {
			return nil, errs.Internal(err)
		}
		if count > 0 {
			data.FacilitiesByType[string(t)] = count
		}
	}
	for _, c := range []model.Condition{model.ConditionExcellent, model.ConditionGood, model.ConditionFair, model.ConditionPoor, model.ConditionCritical} {
		count, err := s.store.Facilities().Count(ctx, storage.FacilityFilter{Condition: c, CreatedFrom: &from, CreatedTo: &to})
		if err != nil {
			return nil, errs.Internal(err)
		}
		if count > 0 {
			data.FacilitiesByState[string(c)] = count
		}
	}

	inspections, _, err := s.store.Inspections().List(ctx, storage.InspectionFilter{CreatedFrom: &from, CreatedTo: &to}, storage.Page{})
	if err != nil {
		return nil, errs.Internal(err)
	}
	data.Inspections = int64(len(inspections))
	var scoreSum int
	for _, inspection := range inspections {
		data.InspectionsByStatus[string(inspection.Status)]++
		scoreSum += inspection.Score
	}
	if len(inspections) > 0 {
		data.AverageScore = float64(scoreSum) / float64(len(inspections))
	}

	issues, _, err := s.store.Issues().List(ctx, storage.IssueFilter{CreatedFrom: &from, CreatedTo: &to}, storage.Page{})
	if err != nil {
		return nil, errs.Internal(err)
	}
	data.Issues = int64(len(issues))
	for _, issue := range issues {
		data.IssuesByStatus[string(issue.Status)]++
		data.IssuesBySeverity[string(issue.Severity)]++
	}

	return data, nil
}

// Render serializes a stored report in the requested format and returns the
// payload, content type and suggested filename.
func (s *ReportService) Render(ctx context.Context, id string, format model.ReportFormat) ([]byte, string, string, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	if format == "" {
		format = report.Format
	}

	switch format {
	case model.FormatJSON:
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", "", errs.Internal(err)
		}
		return payload, "application/json", reportFilename(report, "json"), nil
	case model.FormatCSV:
		payload, err := renderCSV(report)
		if err != nil {
			return nil, "", "", errs.Internal(err)
		}
		return payload, "text/csv", reportFilename(report, "csv"), nil
	case model.FormatXLSX:
		payload, err := renderXLSX(report)
		if err != nil {
			return nil, "", "", errs.Internal(err)
		}
		return payload, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", reportFilename(report, "xlsx"), nil
	default:
		return nil, "", "", errs.Validation([]string{"format: must be one of: json, csv, xlsx"})
	}
}

func reportFilename(report *model.Report, ext string) string {
	return fmt.Sprintf("report-%s-%s.%s", report.Type, report.CreatedAt.Format("2006-01-02"), ext)
}

// reportRows flattens the aggregates into metric/label/value rows with a
// deterministic order, shared by the CSV and XLSX renderers.
func reportRows(data *model.ReportData) [][]string {
	rows := [][]string{
		{"metric", "label", "value"},
		{"villages", "", strconv.FormatInt(data.Villages, 10)},
		{"facilities", "", strconv.FormatInt(data.Facilities, 10)},
	}
	rows = append(rows, countRows("facilities_by_type", data.FacilitiesByType)...)
	rows = append(rows, countRows("facilities_by_condition", data.FacilitiesByState)...)
	rows = append(rows, [][]string{
		{"inspections", "", strconv.FormatInt(data.Inspections, 10)},
		{"average_score", "", strconv.FormatFloat(data.AverageScore, 'f', 2, 64)},
	}...)
	rows = append(rows, countRows("inspections_by_status", data.InspectionsByStatus)...)
	rows = append(rows, []string{"issues", "", strconv.FormatInt(data.Issues, 10)})
	rows = append(rows, countRows("issues_by_status", data.IssuesByStatus)...)
	rows = append(rows, countRows("issues_by_severity", data.IssuesBySeverity)...)
	return rows
}

func countRows(metric string, counts map[string]int64) [][]string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{metric, label, strconv.FormatInt(counts[label], 10)})
	}
	return rows
}

func renderCSV(report *model.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(reportRows(report.Data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(report *model.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", report.Title)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("%s to %s",
		report.DateRange.Start.Format("2006-01-02"),
		report.DateRange.End.Format("2006-01-02")))

	for i, row := range reportRows(report.Data) {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+4)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
