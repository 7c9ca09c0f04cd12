package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/conference"
)

type conferenceRepository struct {
	db *conferenceTable
}

var _ conference.Repository = (*conferenceRepository)(nil) // interface compliance check

func NewConferenceRepository(db *DB) *conferenceRepository {
	return &conferenceRepository{db: db.conference}
}

func (repo *conferenceRepository) CreateConference(ctx context.Context, c conference.Conference, exec ...core.DBExecutor) (conference.Conference, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *conferenceRepository) QueryAllConferences(ctx context.Context, exec ...core.DBExecutor) ([]conference.Conference, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	confs := make([]conference.Conference, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		confs = append(confs, *c)
	}
	sort.Slice(confs, func(i, j int) bool { return confs[i].CreatedAt.Before(confs[j].CreatedAt) })
	return confs, nil
}

func (repo *conferenceRepository) GetConferenceByID(ctx context.Context, id string, exec ...core.DBExecutor) (conference.Conference, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return conference.Conference{}, conference.ErrNotFound
}

func (repo *conferenceRepository) UpdateConference(ctx context.Context, c conference.Conference, exec ...core.DBExecutor) (conference.Conference, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[c.ID]
	if !ok {
		return conference.Conference{}, conference.ErrNotFound
	}
	if c.Name != "" {
		existing.Name = c.Name
	}
	if c.Description != "" {
		existing.Description = c.Description
	}
	if !c.StartDate.IsZero() {
		existing.StartDate = c.StartDate
	}
	if !c.EndDate.IsZero() {
		existing.EndDate = c.EndDate
	}
	if c.Location != "" {
		existing.Location = c.Location
	}
	if c.Status != "" {
		existing.Status = c.Status
	}
	if c.MaxSessions > 0 {
		existing.MaxSessions = c.MaxSessions
	}
	if !c.UpdatedAt.IsZero() {
		existing.UpdatedAt = c.UpdatedAt
	}
	return *existing, nil
}

func (repo *conferenceRepository) DeleteConferencesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		for _, s := range repo.db.sessions {
			if s.ConferenceID == id {
				s.ConferenceID = ""
			}
		}
	}
	return nil
}

func (repo *conferenceRepository) CreateSession(ctx context.Context, s conference.Session, exec ...core.DBExecutor) (conference.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.New().String()
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *conferenceRepository) QuerySessions(ctx context.Context, conferenceID string, exec ...core.DBExecutor) ([]conference.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]conference.Session, 0, len(repo.db.sessions))
	for _, s := range repo.db.sessions {
		if conferenceID != "" && s.ConferenceID != conferenceID {
			continue
		}
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions, nil
}

func (repo *conferenceRepository) GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (conference.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return conference.Session{}, conference.ErrSessionNotFound
}

func (repo *conferenceRepository) UpdateSession(ctx context.Context, s conference.Session, conferenceID *string, exec ...core.DBExecutor) (conference.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.sessions[s.ID]
	if !ok {
		return conference.Session{}, conference.ErrSessionNotFound
	}
	if s.Name != "" {
		existing.Name = s.Name
	}
	if s.Description != "" {
		existing.Description = s.Description
	}
	if !s.StartDate.IsZero() {
		existing.StartDate = s.StartDate
	}
	if !s.EndDate.IsZero() {
		existing.EndDate = s.EndDate
	}
	if s.Location != "" {
		existing.Location = s.Location
	}
	if s.Status != "" {
		existing.Status = s.Status
	}
	if s.MaxProjects > 0 {
		existing.MaxProjects = s.MaxProjects
	}
	if conferenceID != nil {
		existing.ConferenceID = *conferenceID
	}
	if !s.UpdatedAt.IsZero() {
		existing.UpdatedAt = s.UpdatedAt
	}
	return *existing, nil
}

func (repo *conferenceRepository) DeleteSessionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.sessions, id)
	}
	return nil
}
