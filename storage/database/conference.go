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
	"github.com/trezcool/confeval/core/conference"
)

type conferenceRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	StartDate   null.Time   `db:"start_date"`
	EndDate     null.Time   `db:"end_date"`
	Location    null.String `db:"location"`
	Status      string      `db:"status"`
	MaxSessions int         `db:"max_sessions"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (row conferenceRow) conference() conference.Conference {
	return conference.Conference{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		StartDate:   row.StartDate.Time,
		EndDate:     row.EndDate.Time,
		Location:    row.Location.String,
		Status:      row.Status,
		MaxSessions: row.MaxSessions,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type sessionRow struct {
	ID           string      `db:"id"`
	ConferenceID null.String `db:"conference_id"`
	Name         string      `db:"name"`
	Description  null.String `db:"description"`
	StartDate    null.Time   `db:"start_date"`
	EndDate      null.Time   `db:"end_date"`
	Location     null.String `db:"location"`
	Status       string      `db:"status"`
	MaxProjects  int         `db:"max_projects"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (row sessionRow) session() conference.Session {
	return conference.Session{
		ID:           row.ID,
		ConferenceID: row.ConferenceID.String,
		Name:         row.Name,
		Description:  row.Description.String,
		StartDate:    row.StartDate.Time,
		EndDate:      row.EndDate.Time,
		Location:     row.Location.String,
		Status:       row.Status,
		MaxProjects:  row.MaxProjects,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type conferenceRepository struct {
	db *sqlx.DB
}

var _ conference.Repository = (*conferenceRepository)(nil) // interface compliance check

func NewConferenceRepository(db *sqlx.DB) *conferenceRepository {
	return &conferenceRepository{db: db}
}

func (repo conferenceRepository) CreateConference(ctx context.Context, c conference.Conference, exec ...core.DBExecutor) (conference.Conference, error) {
	exe := getExec(repo.db, exec)
	c.ID = uuid.New().String()

	query := exe.Rebind(`
INSERT INTO conferences (id, name, description, start_date, end_date, location, status, max_sessions, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, query,
		c.ID, c.Name, c.Description, null.NewTime(c.StartDate.UTC(), !c.StartDate.IsZero()),
		null.NewTime(c.EndDate.UTC(), !c.EndDate.IsZero()), c.Location, c.Status, c.MaxSessions,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return conference.Conference{}, errors.Wrap(err, "inserting conference")
	}
	return c, nil
}

func (repo conferenceRepository) QueryAllConferences(ctx context.Context, exec ...core.DBExecutor) ([]conference.Conference, error) {
	exe := getExec(repo.db, exec)

	var rows []conferenceRow
	query := `SELECT * FROM conferences ORDER BY start_date, created_at`
	if err := sqlx.SelectContext(ctx, exe, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying conferences")
	}
	confs := make([]conference.Conference, 0, len(rows))
	for _, row := range rows {
		confs = append(confs, row.conference())
	}
	return confs, nil
}

func (repo conferenceRepository) GetConferenceByID(ctx context.Context, id string, exec ...core.DBExecutor) (conference.Conference, error) {
	if _, err := uuid.Parse(id); err != nil {
		return conference.Conference{}, conference.ErrNotFound
	}
	exe := getExec(repo.db, exec)

	var row conferenceRow
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(`SELECT * FROM conferences WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return conference.Conference{}, conference.ErrNotFound
		}
		return conference.Conference{}, errors.Wrap(err, "finding conference")
	}
	return row.conference(), nil
}

func (repo conferenceRepository) UpdateConference(ctx context.Context, c conference.Conference, exec ...core.DBExecutor) (conference.Conference, error) {
	exe := getExec(repo.db, exec)

	sets := []string{`updated_at = ?`}
	args := []interface{}{time.Now().UTC()}
	if c.Name != "" {
		sets = append(sets, `name = ?`)
		args = append(args, c.Name)
	}
	if c.Description != "" {
		sets = append(sets, `description = ?`)
		args = append(args, c.Description)
	}
	if !c.StartDate.IsZero() {
		sets = append(sets, `start_date = ?`)
		args = append(args, c.StartDate.UTC())
	}
	if !c.EndDate.IsZero() {
		sets = append(sets, `end_date = ?`)
		args = append(args, c.EndDate.UTC())
	}
	if c.Location != "" {
		sets = append(sets, `location = ?`)
		args = append(args, c.Location)
	}
	if c.Status != "" {
		sets = append(sets, `status = ?`)
		args = append(args, c.Status)
	}
	if c.MaxSessions > 0 {
		sets = append(sets, `max_sessions = ?`)
		args = append(args, c.MaxSessions)
	}
	args = append(args, c.ID)

	query := exe.Rebind(`UPDATE conferences SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := exe.ExecContext(ctx, query, args...)
	if err != nil {
		return conference.Conference{}, errors.Wrap(err, "updating conference")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return conference.Conference{}, conference.ErrNotFound
	}
	return repo.GetConferenceByID(ctx, c.ID, exec...)
}

func (repo conferenceRepository) DeleteConferencesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	exe := getExec(repo.db, exec)
	query, args, err := sqlx.In(`DELETE FROM conferences WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting conferences")
	}
	if _, err = exe.ExecContext(ctx, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting conferences")
	}
	return nil
}

func (repo conferenceRepository) CreateSession(ctx context.Context, s conference.Session, exec ...core.DBExecutor) (conference.Session, error) {
	exe := getExec(repo.db, exec)
	s.ID = uuid.New().String()

	query := exe.Rebind(`
INSERT INTO sessions (id, conference_id, name, description, start_date, end_date, location, status, max_projects, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, query,
		s.ID, null.NewString(s.ConferenceID, s.ConferenceID != ""), s.Name, s.Description,
		null.NewTime(s.StartDate.UTC(), !s.StartDate.IsZero()), null.NewTime(s.EndDate.UTC(), !s.EndDate.IsZero()),
		s.Location, s.Status, s.MaxProjects, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return conference.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo conferenceRepository) QuerySessions(ctx context.Context, conferenceID string, exec ...core.DBExecutor) ([]conference.Session, error) {
	exe := getExec(repo.db, exec)

	query := `SELECT * FROM sessions`
	var args []interface{}
	if conferenceID != "" {
		query += ` WHERE conference_id = ?`
		args = append(args, conferenceID)
	}
	query += ` ORDER BY start_date, created_at`

	var rows []sessionRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]conference.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.session())
	}
	return sessions, nil
}

func (repo conferenceRepository) GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (conference.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return conference.Session{}, conference.ErrSessionNotFound
	}
	exe := getExec(repo.db, exec)

	var row sessionRow
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(`SELECT * FROM sessions WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return conference.Session{}, conference.ErrSessionNotFound
		}
		return conference.Session{}, errors.Wrap(err, "finding session")
	}
	return row.session(), nil
}

func (repo conferenceRepository) UpdateSession(ctx context.Context, s conference.Session, conferenceID *string, exec ...core.DBExecutor) (conference.Session, error) {
	exe := getExec(repo.db, exec)

	sets := []string{`updated_at = ?`}
	args := []interface{}{time.Now().UTC()}
	if s.Name != "" {
		sets = append(sets, `name = ?`)
		args = append(args, s.Name)
	}
	if s.Description != "" {
		sets = append(sets, `description = ?`)
		args = append(args, s.Description)
	}
	if !s.StartDate.IsZero() {
		sets = append(sets, `start_date = ?`)
		args = append(args, s.StartDate.UTC())
	}
	if !s.EndDate.IsZero() {
		sets = append(sets, `end_date = ?`)
		args = append(args, s.EndDate.UTC())
	}
	if s.Location != "" {
		sets = append(sets, `location = ?`)
		args = append(args, s.Location)
	}
	if s.Status != "" {
		sets = append(sets, `status = ?`)
		args = append(args, s.Status)
	}
	if s.MaxProjects > 0 {
		sets = append(sets, `max_projects = ?`)
		args = append(args, s.MaxProjects)
	}
	if conferenceID != nil {
		sets = append(sets, `conference_id = ?`)
		args = append(args, null.NewString(*conferenceID, *conferenceID != ""))
	}
	args = append(args, s.ID)

	query := exe.Rebind(`UPDATE sessions SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := exe.ExecContext(ctx, query, args...)
	if err != nil {
		return conference.Session{}, errors.Wrap(err, "updating session")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return conference.Session{}, conference.ErrSessionNotFound
	}
	return repo.GetSessionByID(ctx, s.ID, exec...)
}

func (repo conferenceRepository) DeleteSessionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	exe := getExec(repo.db, exec)
	query, args, err := sqlx.In(`DELETE FROM sessions WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting sessions")
	}
	if _, err = exe.ExecContext(ctx, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting sessions")
	}
	return nil
}
