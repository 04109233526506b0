package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/domain/repositories"
	"github.com/radworks/reportassist/internal/infrastructure/clients/postgres"
	apperrors "github.com/radworks/reportassist/pkg/errors"
)

// RevisionAdapter implements ReportRevisionRepository. Revisions are
// append-only: there is deliberately no update or single-delete path.
type RevisionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRevisionAdapter creates a new revision adapter
func NewRevisionAdapter(client *postgres.Client) repositories.ReportRevisionRepository {
	return &RevisionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append records a new revision snapshot
func (a *RevisionAdapter) Append(ctx context.Context, revision *entities.ReportRevision) error {
	record := goqu.Record{
		"id":          revision.ID,
		"report_id":   revision.ReportID,
		"content":     revision.Content,
		"edit_source": string(revision.EditSource),
		"created_at":  revision.CreatedAt,
	}

	query, args, err := a.db.Insert("report_revisions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build revision insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append revision", err)
	}
	return nil
}

// ListByReport returns revisions for a report, newest first
func (a *RevisionAdapter) ListByReport(ctx context.Context, reportID string, limit int) ([]*entities.ReportRevision, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := a.db.Select("id", "report_id", "content", "edit_source", "created_at").
		From("report_revisions").
		Where(goqu.Ex{"report_id": reportID}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build revision query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list revisions", err)
	}
	defer rows.Close()

	var revisions []*entities.ReportRevision
	for rows.Next() {
		revision := &entities.ReportRevision{}
		var source string
		if err := rows.Scan(&revision.ID, &revision.ReportID, &revision.Content, &source, &revision.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan revision row", err)
		}
		revision.EditSource = entities.EditSource(source)
		revisions = append(revisions, revision)
	}
	return revisions, rows.Err()
}
