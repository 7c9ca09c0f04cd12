package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/review"
)

type reviewRepository struct {
	db *reviewTable
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *DB) *reviewRepository {
	return &reviewRepository{db: db.review}
}

func (repo *reviewRepository) CreateCriterion(ctx context.Context, crt review.Criterion, exec ...core.DBExecutor) (review.Criterion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crt.ID = uuid.New().String()
	repo.db.criteria[crt.ID] = &crt
	return crt, nil
}

func (repo *reviewRepository) QueryCriteria(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]review.Criterion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	crits := make([]review.Criterion, 0, len(repo.db.criteria))
	for _, crt := range repo.db.criteria {
		if sessionID != "" && crt.SessionID != sessionID {
			continue
		}
		crits = append(crits, *crt)
	}
	sort.Slice(crits, func(i, j int) bool {
		if crits[i].Order == crits[j].Order {
			return crits[i].CreatedAt.Before(crits[j].CreatedAt)
		}
		return crits[i].Order < crits[j].Order
	})
	return crits, nil
}

func (repo *reviewRepository) GetCriterionByID(ctx context.Context, id string, exec ...core.DBExecutor) (review.Criterion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crt, ok := repo.db.criteria[id]; ok {
		return *crt, nil
	}
	return review.Criterion{}, review.ErrCriterionNotFound
}

func (repo *reviewRepository) UpdateCriterion(ctx context.Context, crt review.Criterion, exec ...core.DBExecutor) (review.Criterion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.criteria[crt.ID]; !ok {
		return review.Criterion{}, review.ErrCriterionNotFound
	}
	repo.db.criteria[crt.ID] = &crt
	return crt, nil
}

func (repo *reviewRepository) DeleteCriteriaByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.criteria, id)
	}
	return nil
}

func (repo *reviewRepository) CreateReview(ctx context.Context, rev review.Review, exec ...core.DBExecutor) (review.Review, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rev.ID = uuid.New().String()
	repo.db.table[rev.ID] = &rev
	return rev, nil
}

func (repo *reviewRepository) QueryReviews(ctx context.Context, filter *review.QueryFilter, exec ...core.DBExecutor) ([]review.Review, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	revs := make([]review.Review, 0, len(repo.db.table))
	for _, rev := range repo.db.table {
		if filter != nil {
			if filter.ProjectID != "" && rev.ProjectID != filter.ProjectID {
				continue
			}
			if filter.ReviewerID != "" && rev.ReviewerID != filter.ReviewerID {
				continue
			}
			if filter.CompletedOnly && !rev.IsCompleted {
				continue
			}
		}
		revs = append(revs, *rev)
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].CreatedAt.Before(revs[j].CreatedAt) })
	return revs, nil
}

func (repo *reviewRepository) GetReviewByID(ctx context.Context, id string, exec ...core.DBExecutor) (review.Review, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rev, ok := repo.db.table[id]; ok {
		return *rev, nil
	}
	return review.Review{}, review.ErrNotFound
}

func (repo *reviewRepository) GetReviewByProjectAndReviewer(ctx context.Context, projectID, reviewerID string, exec ...core.DBExecutor) (review.Review, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rev := range repo.db.table {
		if rev.ProjectID == projectID && rev.ReviewerID == reviewerID {
			return *rev, nil
		}
	}
	return review.Review{}, review.ErrNotFound
}

func (repo *reviewRepository) UpdateReview(ctx context.Context, rev review.Review, exec ...core.DBExecutor) (review.Review, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rev.ID]; !ok {
		return review.Review{}, review.ErrNotFound
	}
	repo.db.table[rev.ID] = &rev
	return rev, nil
}
