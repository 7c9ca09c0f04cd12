package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/assign"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/user"
)

type assignRepository struct {
	db *sqlx.DB
}

var _ assign.Repository = (*assignRepository)(nil) // interface compliance check

func NewAssignRepository(db *sqlx.DB) *assignRepository {
	return &assignRepository{db: db}
}

type eligibleProjectRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	SessionID   null.String    `db:"session_id"`
	SessionName null.String    `db:"session_name"`
	StudentName null.String    `db:"student_name"`
	TagIDs      pq.StringArray `db:"tag_ids"`
	ReviewerIDs pq.StringArray `db:"reviewer_ids"`
}

func (repo assignRepository) ListEligibleProjects(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]assign.Project, error) {
	exe := getExec(repo.db, exec)

	query := `
SELECT p.id, p.title, p.session_id, s.name AS session_name, u.name AS student_name,
       COALESCE(array_agg(DISTINCT pt.tag_id) FILTER (WHERE pt.tag_id IS NOT NULL), '{}') AS tag_ids,
       COALESCE(array_agg(DISTINCT pr.reviewer_id) FILTER (WHERE pr.reviewer_id IS NOT NULL), '{}') AS reviewer_ids
  FROM projects p
  LEFT JOIN sessions s ON s.id = p.session_id
  LEFT JOIN users u ON u.id = p.student_id
  LEFT JOIN project_tags pt ON pt.project_id = p.id
  LEFT JOIN project_reviewers pr ON pr.project_id = p.id
 WHERE p.status = ?`
	args := []interface{}{project.StatusApproved}
	if sessionID != "" {
		query += ` AND p.session_id = ?`
		args = append(args, sessionID)
	}
	query += ` GROUP BY p.id, s.name, u.name ORDER BY p.created_at`

	var rows []eligibleProjectRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying eligible projects")
	}
	projects := make([]assign.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, assign.Project{
			ID:          row.ID,
			Title:       row.Title,
			SessionID:   row.SessionID.String,
			SessionName: row.SessionName.String,
			StudentName: row.StudentName.String,
			TagIDs:      row.TagIDs,
			ReviewerIDs: row.ReviewerIDs,
		})
	}
	return projects, nil
}

type eligibleReviewerRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Email        null.String    `db:"email"`
	TagIDs       pq.StringArray `db:"tag_ids"`
	SessionCount int            `db:"session_count"`
	TotalCount   int            `db:"total_count"`
}

func (repo assignRepository) ListEligibleReviewers(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]assign.Reviewer, error) {
	exe := getExec(repo.db, exec)

	sessionCount := `(SELECT COUNT(*) FROM project_reviewers pr WHERE pr.reviewer_id = u.id)`
	var args []interface{}
	if sessionID != "" {
		sessionCount = `(SELECT COUNT(*) FROM project_reviewers pr
   JOIN projects p ON p.id = pr.project_id
  WHERE pr.reviewer_id = u.id AND p.session_id = ?)`
		args = append(args, sessionID)
	}

	query := `
SELECT u.id, u.name, u.email,
       COALESCE(array_agg(rt.tag_id) FILTER (WHERE rt.tag_id IS NOT NULL), '{}') AS tag_ids,
       ` + sessionCount + ` AS session_count,
       (SELECT COUNT(*) FROM project_reviewers pr WHERE pr.reviewer_id = u.id) AS total_count
  FROM users u
  LEFT JOIN reviewer_tags rt ON rt.user_id = u.id
 WHERE u.is_active AND u.is_approved
   AND EXISTS (SELECT 1 FROM UNNEST(u.roles) user_role WHERE user_role ILIKE ?)
 GROUP BY u.id
 ORDER BY u.created_at`
	args = append(args, user.RoleReviewer+"%")

	var rows []eligibleReviewerRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying eligible reviewers")
	}
	reviewers := make([]assign.Reviewer, 0, len(rows))
	for _, row := range rows {
		reviewers = append(reviewers, assign.Reviewer{
			ID:           row.ID,
			Name:         row.Name.String,
			Email:        row.Email.String,
			TagIDs:       row.TagIDs,
			SessionCount: row.SessionCount,
			TotalCount:   row.TotalCount,
		})
	}
	return reviewers, nil
}

func (repo assignRepository) CommitAssignments(ctx context.Context, pairs []assign.Pair, exec ...core.DBExecutor) (int, error) {
	var made int
	err := runInTx(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		query := ext.Rebind(`INSERT INTO project_reviewers (project_id, reviewer_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
		for _, pair := range pairs {
			res, err := ext.ExecContext(ctx, query, pair.ProjectID, pair.ReviewerID)
			if err != nil {
				return errors.Wrap(err, "inserting assignment")
			}
			if cnt, err := res.RowsAffected(); err == nil {
				made += int(cnt)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return made, nil
}

func (repo assignRepository) ClearAssignments(ctx context.Context, sessionID string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.db, exec)

	query := `DELETE FROM project_reviewers`
	var args []interface{}
	if sessionID != "" {
		query = `
DELETE FROM project_reviewers pr
 USING projects p
 WHERE p.id = pr.project_id AND p.session_id = ?`
		args = append(args, sessionID)
	}

	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "clearing assignments")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "clearing assignments")
	}
	return int(cnt), nil
}
