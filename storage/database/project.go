package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/project"
)

const projectSelect = `
SELECT p.id, p.title, p.description, p.student_id, p.session_id, p.status, p.mentor_email,
       p.poster_number, p.created_at, p.updated_at,
       COALESCE(array_agg(DISTINCT pt.tag_id) FILTER (WHERE pt.tag_id IS NOT NULL), '{}') AS tag_ids,
       COALESCE(array_agg(DISTINCT pr.reviewer_id) FILTER (WHERE pr.reviewer_id IS NOT NULL), '{}') AS reviewer_ids
  FROM projects p
  LEFT JOIN project_tags pt ON pt.project_id = p.id
  LEFT JOIN project_reviewers pr ON pr.project_id = p.id`

type projectRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  null.String    `db:"description"`
	StudentID    string         `db:"student_id"`
	SessionID    null.String    `db:"session_id"`
	Status       string         `db:"status"`
	MentorEmail  null.String    `db:"mentor_email"`
	PosterNumber null.String    `db:"poster_number"`
	TagIDs       pq.StringArray `db:"tag_ids"`
	ReviewerIDs  pq.StringArray `db:"reviewer_ids"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (row projectRow) project() project.Project {
	return project.Project{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description.String,
		StudentID:    row.StudentID,
		SessionID:    row.SessionID.String,
		Status:       row.Status,
		MentorEmail:  row.MentorEmail.String,
		PosterNumber: row.PosterNumber.String,
		TagIDs:       row.TagIDs,
		ReviewerIDs:  row.ReviewerIDs,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *sqlx.DB) *projectRepository {
	return &projectRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to project.ErrNotFound
func (repo projectRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return project.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo projectRepository) CreateProject(ctx context.Context, prj project.Project, exec ...core.DBExecutor) (project.Project, error) {
	exe := getExec(repo.db, exec)
	prj.ID = uuid.New().String()

	query := exe.Rebind(`
INSERT INTO projects (id, title, description, student_id, session_id, status, mentor_email, poster_number, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, query,
		prj.ID, prj.Title, prj.Description, prj.StudentID,
		null.NewString(prj.SessionID, prj.SessionID != ""), prj.Status, prj.MentorEmail,
		prj.PosterNumber, prj.CreatedAt.UTC(), prj.UpdatedAt.UTC(),
	)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return prj, nil
}

func (repo projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, exec ...core.DBExecutor) ([]project.Project, error) {
	exe := getExec(repo.db, exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, `(p.title ILIKE ? OR p.description ILIKE ?)`)
			args = append(args, val, val)
		}
		if filter.Status != "" {
			conds = append(conds, `p.status = ?`)
			args = append(args, filter.Status)
		}
		if filter.SessionID != "" {
			conds = append(conds, `p.session_id = ?`)
			args = append(args, filter.SessionID)
		}
		if filter.StudentID != "" {
			conds = append(conds, `p.student_id = ?`)
			args = append(args, filter.StudentID)
		}
	}

	query := projectSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " GROUP BY p.id ORDER BY p.created_at"

	var rows []projectRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.project())
	}
	return projects, nil
}

func (repo projectRepository) GetProjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (project.Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return project.Project{}, project.ErrNotFound
	}
	exe := getExec(repo.db, exec)

	var row projectRow
	query := projectSelect + " WHERE p.id = ? GROUP BY p.id"
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(query), id); err != nil {
		return project.Project{}, repo.trapNoRowsErr(err, "finding project")
	}
	return row.project(), nil
}

func (repo projectRepository) UpdateProject(ctx context.Context, prj project.Project, sessionID *string, exec ...core.DBExecutor) (project.Project, error) {
	exe := getExec(repo.db, exec)

	sets := []string{`updated_at = ?`}
	args := []interface{}{time.Now().UTC()}
	if prj.Title != "" {
		sets = append(sets, `title = ?`)
		args = append(args, prj.Title)
	}
	if prj.Description != "" {
		sets = append(sets, `description = ?`)
		args = append(args, prj.Description)
	}
	if prj.MentorEmail != "" {
		sets = append(sets, `mentor_email = ?`)
		args = append(args, prj.MentorEmail)
	}
	if prj.PosterNumber != "" {
		sets = append(sets, `poster_number = ?`)
		args = append(args, prj.PosterNumber)
	}
	if prj.Status != "" {
		sets = append(sets, `status = ?`)
		args = append(args, prj.Status)
	}
	if sessionID != nil {
		sets = append(sets, `session_id = ?`)
		args = append(args, null.NewString(*sessionID, *sessionID != ""))
	}
	args = append(args, prj.ID)

	query := exe.Rebind(`UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := exe.ExecContext(ctx, query, args...)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "updating project")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return project.Project{}, project.ErrNotFound
	}
	return repo.GetProjectByID(ctx, prj.ID, exec...)
}

func (repo projectRepository) SetProjectStatus(ctx context.Context, id, status string, exec ...core.DBExecutor) (project.Project, error) {
	exe := getExec(repo.db, exec)

	query := exe.Rebind(`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := exe.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "setting project status")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return project.Project{}, project.ErrNotFound
	}
	return repo.GetProjectByID(ctx, id, exec...)
}

func (repo projectRepository) SetProjectTags(ctx context.Context, id string, tagIDs []string, exec ...core.DBExecutor) error {
	return runInTx(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		if _, err := ext.ExecContext(ctx, ext.Rebind(`DELETE FROM project_tags WHERE project_id = ?`), id); err != nil {
			return errors.Wrap(err, "clearing project tags")
		}
		for _, tagID := range tagIDs {
			query := ext.Rebind(`INSERT INTO project_tags (project_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
			if _, err := ext.ExecContext(ctx, query, id, tagID); err != nil {
				return errors.Wrap(err, "setting project tags")
			}
		}
		return nil
	})
}

func (repo projectRepository) DeleteProjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	exe := getExec(repo.db, exec)
	query, args, err := sqlx.In(`DELETE FROM projects WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting projects")
	}
	if _, err = exe.ExecContext(ctx, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting projects")
	}
	return nil
}
