package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/repositories"
	"github.com/radworks/reportassist/internal/infrastructure/clients/postgres"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

var reportColumns = []interface{}{
	"id", "patient_ref", "scan_type", "report_content", "status",
	"is_pinned", "created_at", "updated_at",
}

// ReportAdapter implements ReportRepository
type ReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client) repositories.ReportRepository {
	return &ReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new report
func (a *ReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	record := goqu.Record{
		"id":             report.ID,
		"patient_ref":    report.PatientRef,
		"scan_type":      report.ScanType,
		"report_content": report.ReportContent,
		"status":         string(report.Status),
		"is_pinned":      report.IsPinned,
		"created_at":     report.CreatedAt,
		"updated_at":     report.UpdatedAt,
	}

	query, args, err := a.db.Insert("reports").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create report", err)
	}

	return nil
}

// GetByID retrieves a report by ID
func (a *ReportAdapter) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	query, args, err := a.db.Select(reportColumns...).
		From("reports").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	report, err := scanReport(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("report not found: " + id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get report", err)
	}
	return report, nil
}

// List retrieves reports matching the filter
func (a *ReportAdapter) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 30
	}

	where := goqu.Ex{}
	if filter.Status != "" {
		where["status"] = string(filter.Status)
	}
	if filter.ScanType != "" {
		where["scan_type"] = filter.ScanType
	}
	if filter.Pinned != nil {
		where["is_pinned"] = *filter.Pinned
	}

	query, args, err := a.db.Select(reportColumns...).
		From("reports").
		Where(where).
		Order(goqu.I("updated_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(filter.Offset)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reports", err)
	}
	defer rows.Close()

	var reports []*entities.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan report row", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// UpdateContent replaces the report body and records the edit source
func (a *ReportAdapter) UpdateContent(ctx context.Context, id, content string, source entities.EditSource) error {
	query, args, err := a.db.Update("reports").
		Set(goqu.Record{
			"report_content":   content,
			"last_edit_source": string(source),
			"updated_at":       time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update report content", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewNotFoundError("report not found: " + id)
	}
	return nil
}

// SetPinned toggles the pinned flag
func (a *ReportAdapter) SetPinned(ctx context.Context, id string, pinned bool) error {
	query, args, err := a.db.Update("reports").
		Set(goqu.Record{"is_pinned": pinned, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build pin query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to set pinned flag", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewNotFoundError("report not found: " + id)
	}
	return nil
}

// Delete deletes a report and its revisions
func (a *ReportAdapter) Delete(ctx context.Context, id string) error {
	revQuery, revArgs, err := a.db.Delete("report_revisions").
		Where(goqu.Ex{"report_id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build revision delete query", err)
	}

	query, args, err := a.db.Delete("reports").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, revQuery, revArgs...); err != nil {
		return apperrors.NewInternalError("failed to delete report revisions", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete report", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*entities.Report, error) {
	report := &entities.Report{}
	var status string
	err := row.Scan(
		&report.ID,
		&report.PatientRef,
		&report.ScanType,
		&report.ReportContent,
		&status,
		&report.IsPinned,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	report.Status = entities.ReportStatus(status)
	return report, nil
}
