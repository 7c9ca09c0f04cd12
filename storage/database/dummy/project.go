package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/project"
)

type projectRepository struct {
	db *projectTable
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *DB) *projectRepository {
	return &projectRepository{db: db.project}
}

func (repo *projectRepository) query() []project.Project {
	projects := make([]project.Project, 0, len(repo.db.table))
	for _, prj := range repo.db.table {
		projects = append(projects, *prj)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects
}

func (repo *projectRepository) CreateProject(ctx context.Context, prj project.Project, exec ...core.DBExecutor) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prj.ID = uuid.New().String()
	repo.db.table[prj.ID] = &prj
	return prj, nil
}

func (repo *projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, exec ...core.DBExecutor) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make([]project.Project, 0)
	for _, prj := range repo.query() {
		if filter != nil {
			if filter.Search != "" {
				kw := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(prj.Title), kw) &&
					!strings.Contains(strings.ToLower(prj.Description), kw) {
					continue
				}
			}
			if filter.Status != "" && prj.Status != filter.Status {
				continue
			}
			if filter.SessionID != "" && prj.SessionID != filter.SessionID {
				continue
			}
			if filter.StudentID != "" && prj.StudentID != filter.StudentID {
				continue
			}
		}
		projects = append(projects, prj)
	}
	return projects, nil
}

func (repo *projectRepository) GetProjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prj, ok := repo.db.table[id]; ok {
		return *prj, nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) UpdateProject(ctx context.Context, prj project.Project, sessionID *string, exec ...core.DBExecutor) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[prj.ID]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	if prj.Title != "" {
		existing.Title = prj.Title
	}
	if prj.Description != "" {
		existing.Description = prj.Description
	}
	if prj.MentorEmail != "" {
		existing.MentorEmail = prj.MentorEmail
	}
	if prj.PosterNumber != "" {
		existing.PosterNumber = prj.PosterNumber
	}
	if prj.Status != "" {
		existing.Status = prj.Status
	}
	if sessionID != nil {
		existing.SessionID = *sessionID
	}
	if !prj.UpdatedAt.IsZero() {
		existing.UpdatedAt = prj.UpdatedAt
	}
	return *existing, nil
}

func (repo *projectRepository) SetProjectStatus(ctx context.Context, id, status string, exec ...core.DBExecutor) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prj, ok := repo.db.table[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	prj.Status = status
	prj.UpdatedAt = time.Now().UTC()
	return *prj, nil
}

func (repo *projectRepository) SetProjectTags(ctx context.Context, id string, tagIDs []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	prj, ok := repo.db.table[id]
	if !ok {
		return project.ErrNotFound
	}
	prj.TagIDs = append([]string(nil), tagIDs...)
	return nil
}

func (repo *projectRepository) DeleteProjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
