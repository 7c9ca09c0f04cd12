package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/tag"
)

type tagRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (row tagRow) tag() tag.Tag {
	return tag.Tag{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		CreatedAt:   row.CreatedAt,
	}
}

type tagRepository struct {
	db *sqlx.DB
}

var _ tag.Repository = (*tagRepository)(nil) // interface compliance check

func NewTagRepository(db *sqlx.DB) *tagRepository {
	return &tagRepository{db: db}
}

func (repo tagRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return tag.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo tagRepository) CheckTagUniqueness(ctx context.Context, name string, excludedTags []tag.Tag, exec ...core.DBExecutor) error {
	exe := getExec(repo.db, exec)

	query := `SELECT EXISTS (SELECT 1 FROM tags WHERE LOWER(name) = LOWER(?)`
	args := []interface{}{name}
	if len(excludedTags) > 0 {
		ids := make([]string, 0, len(excludedTags))
		for _, t := range excludedTags {
			ids = append(ids, t.ID)
		}
		q, inArgs, err := sqlx.In(` AND id NOT IN (?)`, ids)
		if err != nil {
			return errors.Wrap(err, "checking tag uniqueness")
		}
		query += q
		args = append(args, inArgs...)
	}
	query += `)`

	var exists bool
	if err := sqlx.GetContext(ctx, exe, &exists, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking tag uniqueness")
	}
	if exists {
		return tag.ErrNameExists
	}
	return nil
}

func (repo tagRepository) CreateTag(ctx context.Context, t tag.Tag, exec ...core.DBExecutor) (tag.Tag, error) {
	exe := getExec(repo.db, exec)
	t.ID = uuid.New().String()

	query := exe.Rebind(`INSERT INTO tags (id, name, description, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := exe.ExecContext(ctx, query, t.ID, t.Name, t.Description, t.CreatedAt.UTC()); err != nil {
		return tag.Tag{}, errors.Wrap(err, "inserting tag")
	}
	return t, nil
}

func (repo tagRepository) QueryAllTags(ctx context.Context, exec ...core.DBExecutor) ([]tag.Tag, error) {
	exe := getExec(repo.db, exec)

	var rows []tagRow
	query := `SELECT id, name, description, created_at FROM tags ORDER BY name`
	if err := sqlx.SelectContext(ctx, exe, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying tags")
	}
	tags := make([]tag.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, row.tag())
	}
	return tags, nil
}

func (repo tagRepository) GetTagByID(ctx context.Context, id string, exec ...core.DBExecutor) (tag.Tag, error) {
	if _, err := uuid.Parse(id); err != nil {
		return tag.Tag{}, tag.ErrNotFound
	}
	exe := getExec(repo.db, exec)

	var row tagRow
	query := exe.Rebind(`SELECT id, name, description, created_at FROM tags WHERE id = ?`)
	if err := sqlx.GetContext(ctx, exe, &row, query, id); err != nil {
		return tag.Tag{}, repo.trapNoRowsErr(err, "finding tag")
	}
	return row.tag(), nil
}

func (repo tagRepository) UpdateTag(ctx context.Context, t tag.Tag, exec ...core.DBExecutor) (tag.Tag, error) {
	exe := getExec(repo.db, exec)

	sets := []string{}
	args := []interface{}{}
	if t.Name != "" {
		sets = append(sets, `name = ?`)
		args = append(args, t.Name)
	}
	if t.Description != "" {
		sets = append(sets, `description = ?`)
		args = append(args, t.Description)
	}
	if len(sets) == 0 {
		return repo.GetTagByID(ctx, t.ID, exec...)
	}
	args = append(args, t.ID)

	query := exe.Rebind(`UPDATE tags SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := exe.ExecContext(ctx, query, args...)
	if err != nil {
		return tag.Tag{}, errors.Wrap(err, "updating tag")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return tag.Tag{}, tag.ErrNotFound
	}
	return repo.GetTagByID(ctx, t.ID, exec...)
}

func (repo tagRepository) DeleteTagsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	exe := getExec(repo.db, exec)
	query, args, err := sqlx.In(`DELETE FROM tags WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting tags")
	}
	if _, err = exe.ExecContext(ctx, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting tags")
	}
	return nil
}
