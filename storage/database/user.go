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
	"github.com/trezcool/confeval/core/user"
)

const userSelect = `
SELECT u.id, u.name, u.username, u.email, u.affiliation, u.is_active, u.is_approved,
       u.roles, u.password_hash, u.created_at, u.updated_at, u.last_login,
       COALESCE(array_agg(rt.tag_id) FILTER (WHERE rt.tag_id IS NOT NULL), '{}') AS tag_ids
  FROM users u
  LEFT JOIN reviewer_tags rt ON rt.user_id = u.id`

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	Affiliation  null.String    `db:"affiliation"`
	IsActive     bool           `db:"is_active"`
	IsApproved   bool           `db:"is_approved"`
	Roles        pq.StringArray `db:"roles"`
	TagIDs       pq.StringArray `db:"tag_ids"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (row userRow) user() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name.String,
		Username:     row.Username.String,
		Email:        row.Email.String,
		Affiliation:  row.Affiliation.String,
		IsActive:     row.IsActive,
		IsApproved:   row.IsApproved,
		Roles:        row.Roles,
		TagIDs:       row.TagIDs,
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	exe := getExec(repo.db, exec)

	query := `SELECT username, email FROM users WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q, inArgs, err := sqlx.In(` AND id NOT IN (?)`, ids)
		if err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		query += q
		args = append(args, inArgs...)
	}

	var rows []struct {
		Username null.String `db:"username"`
		Email    null.String `db:"email"`
	}
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if strings.EqualFold(row.Username.String, username) {
			return user.ErrUsernameExists
		}
		if strings.EqualFold(row.Email.String, email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := getExec(repo.db, exec)
	usr.ID = uuid.New().String()

	query := exe.Rebind(`
INSERT INTO users (id, name, username, email, affiliation, is_active, is_approved, roles, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Affiliation, usr.IsActive, usr.IsApproved,
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	exe := getExec(repo.db, exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, `(u.name ILIKE ? OR u.username ILIKE ? OR u.email ILIKE ?)`)
			args = append(args, val, val, val)
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleConds = append(roleConds, `EXISTS (SELECT 1 FROM UNNEST(u.roles) user_role WHERE user_role ILIKE ?)`)
				args = append(args, role+"%")
			}
			conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.IsActive != nil {
			conds = append(conds, `u.is_active = ?`)
			args = append(args, *filter.IsActive)
		}
		if filter.IsApproved != nil {
			conds = append(conds, `u.is_approved = ?`)
			args = append(args, *filter.IsApproved)
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, `u.created_at >= ?`)
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, `u.created_at <= ?`)
			args = append(args, filter.CreatedTo.UTC())
		}
	}

	query := userSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " GROUP BY u.id"
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY u.created_at"
	}

	var rows []userRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, exe sqlx.ExtContext, where string, args ...interface{}) (user.User, error) {
	var row userRow
	query := userSelect + " WHERE " + where + " GROUP BY u.id"
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(query), args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, getExec(repo.db, exec), `u.id = ?`, id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, getExec(repo.db, exec), `u.username = ?`, username)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, getExec(repo.db, exec), `u.email = ?`, email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, getExec(repo.db, exec), `u.username = ? OR u.email = ?`, username, username)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive, isApproved *bool, exec ...core.DBExecutor) (user.User, error) {
	exe := getExec(repo.db, exec)

	sets := []string{`updated_at = ?`}
	args := []interface{}{time.Now().UTC()}
	if usr.Name != "" {
		sets = append(sets, `name = ?`)
		args = append(args, usr.Name)
	}
	if usr.Username != "" {
		sets = append(sets, `username = ?`)
		args = append(args, usr.Username)
	}
	if usr.Email != "" {
		sets = append(sets, `email = ?`)
		args = append(args, usr.Email)
	}
	if usr.Affiliation != "" {
		sets = append(sets, `affiliation = ?`)
		args = append(args, usr.Affiliation)
	}
	if len(usr.Roles) > 0 {
		sets = append(sets, `roles = ?`)
		args = append(args, pq.StringArray(usr.Roles))
	}
	if len(usr.PasswordHash) > 0 {
		sets = append(sets, `password_hash = ?`)
		args = append(args, usr.PasswordHash)
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, `last_login = ?`)
		args = append(args, usr.LastLogin.UTC())
	}
	if isActive != nil {
		sets = append(sets, `is_active = ?`)
		args = append(args, *isActive)
	}
	if isApproved != nil {
		sets = append(sets, `is_approved = ?`)
		args = append(args, *isApproved)
	}
	args = append(args, usr.ID)

	query := exe.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := exe.ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo userRepository) SetUserTags(ctx context.Context, id string, tagIDs []string, exec ...core.DBExecutor) error {
	return runInTx(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		if _, err := ext.ExecContext(ctx, ext.Rebind(`DELETE FROM reviewer_tags WHERE user_id = ?`), id); err != nil {
			return errors.Wrap(err, "clearing user tags")
		}
		for _, tagID := range tagIDs {
			query := ext.Rebind(`INSERT INTO reviewer_tags (user_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
			if _, err := ext.ExecContext(ctx, query, id, tagID); err != nil {
				return errors.Wrap(err, "setting user tags")
			}
		}
		return nil
	})
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	exe := getExec(repo.db, exec)
	query, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = exe.ExecContext(ctx, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
