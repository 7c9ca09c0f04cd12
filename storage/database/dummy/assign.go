package dummydb

import (
	"context"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/assign"
	"github.com/trezcool/confeval/core/project"
)

type assignRepository struct {
	db *DB
}

var _ assign.Repository = (*assignRepository)(nil) // interface compliance check

func NewAssignRepository(db *DB) *assignRepository {
	return &assignRepository{db: db}
}

func (repo *assignRepository) ListEligibleProjects(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]assign.Project, error) {
	prjRepo := &projectRepository{db: repo.db.project}
	filter := &project.QueryFilter{Status: project.StatusApproved, SessionID: sessionID}
	prjs, err := prjRepo.QueryProjects(ctx, filter)
	if err != nil {
		return nil, err
	}

	projects := make([]assign.Project, 0, len(prjs))
	for _, prj := range prjs {
		p := assign.Project{
			ID:          prj.ID,
			Title:       prj.Title,
			SessionID:   prj.SessionID,
			TagIDs:      prj.TagIDs,
			ReviewerIDs: prj.ReviewerIDs,
		}
		repo.db.conference.RLock()
		if s, ok := repo.db.conference.sessions[prj.SessionID]; ok {
			p.SessionName = s.Name
		}
		repo.db.conference.RUnlock()
		repo.db.user.RLock()
		if student, ok := repo.db.user.table[prj.StudentID]; ok {
			p.StudentName = student.Name
		}
		repo.db.user.RUnlock()
		projects = append(projects, p)
	}
	return projects, nil
}

func (repo *assignRepository) ListEligibleReviewers(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]assign.Reviewer, error) {
	usrRepo := &userRepository{db: repo.db.user}
	prjRepo := &projectRepository{db: repo.db.project}

	repo.db.user.RLock()
	users := usrRepo.query()
	repo.db.user.RUnlock()

	repo.db.project.RLock()
	projects := prjRepo.query()
	repo.db.project.RUnlock()

	reviewers := make([]assign.Reviewer, 0)
	for _, usr := range users {
		if !usr.IsReviewer() || !usr.IsActive || !usr.IsApproved {
			continue
		}
		rvw := assign.Reviewer{
			ID:     usr.ID,
			Name:   usr.Name,
			Email:  usr.Email,
			TagIDs: usr.TagIDs,
		}
		for _, prj := range projects {
			for _, rid := range prj.ReviewerIDs {
				if rid != usr.ID {
					continue
				}
				rvw.TotalCount++
				if sessionID == "" || prj.SessionID == sessionID {
					rvw.SessionCount++
				}
			}
		}
		if sessionID == "" {
			rvw.SessionCount = rvw.TotalCount
		}
		reviewers = append(reviewers, rvw)
	}
	return reviewers, nil
}

func (repo *assignRepository) CommitAssignments(ctx context.Context, pairs []assign.Pair, exec ...core.DBExecutor) (int, error) {
	repo.db.project.Lock()
	defer repo.db.project.Unlock()

	var made int
	for _, pair := range pairs {
		prj, ok := repo.db.project.table[pair.ProjectID]
		if !ok {
			return made, project.ErrNotFound
		}
		var exists bool
		for _, rid := range prj.ReviewerIDs {
			if rid == pair.ReviewerID {
				exists = true
				break
			}
		}
		if !exists {
			prj.ReviewerIDs = append(prj.ReviewerIDs, pair.ReviewerID)
			made++
		}
	}
	return made, nil
}

func (repo *assignRepository) ClearAssignments(ctx context.Context, sessionID string, exec ...core.DBExecutor) (int, error) {
	repo.db.project.Lock()
	defer repo.db.project.Unlock()

	var cleared int
	for _, prj := range repo.db.project.table {
		if sessionID != "" && prj.SessionID != sessionID {
			continue
		}
		cleared += len(prj.ReviewerIDs)
		prj.ReviewerIDs = nil
	}
	return cleared, nil
}
