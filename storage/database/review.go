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
	"github.com/trezcool/confeval/core/review"
)

type criterionRow struct {
	ID          string      `db:"id"`
	SessionID   string      `db:"session_id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	MaxScore    int         `db:"max_score"`
	Weight      float64     `db:"weight"`
	Order       int         `db:"ord"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (row criterionRow) criterion() review.Criterion {
	return review.Criterion{
		ID:          row.ID,
		SessionID:   row.SessionID,
		Name:        row.Name,
		Description: row.Description.String,
		MaxScore:    row.MaxScore,
		Weight:      row.Weight,
		Order:       row.Order,
		CreatedAt:   row.CreatedAt,
	}
}

type reviewRow struct {
	ID          string      `db:"id"`
	ProjectID   string      `db:"project_id"`
	ReviewerID  string      `db:"reviewer_id"`
	Comments    null.String `db:"comments"`
	TotalScore  float64     `db:"total_score"`
	IsCompleted bool        `db:"is_completed"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (row reviewRow) review() review.Review {
	return review.Review{
		ID:          row.ID,
		ProjectID:   row.ProjectID,
		ReviewerID:  row.ReviewerID,
		Comments:    row.Comments.String,
		TotalScore:  row.TotalScore,
		IsCompleted: row.IsCompleted,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type reviewRepository struct {
	db *sqlx.DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *sqlx.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

func (repo reviewRepository) CreateCriterion(ctx context.Context, crt review.Criterion, exec ...core.DBExecutor) (review.Criterion, error) {
	exe := getExec(repo.db, exec)
	crt.ID = uuid.New().String()

	query := exe.Rebind(`
INSERT INTO criteria (id, session_id, name, description, max_score, weight, ord, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, query,
		crt.ID, crt.SessionID, crt.Name, crt.Description, crt.MaxScore, crt.Weight, crt.Order, crt.CreatedAt.UTC())
	if err != nil {
		return review.Criterion{}, errors.Wrap(err, "inserting criterion")
	}
	return crt, nil
}

func (repo reviewRepository) QueryCriteria(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]review.Criterion, error) {
	exe := getExec(repo.db, exec)

	query := `SELECT * FROM criteria`
	var args []interface{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY ord, created_at`

	var rows []criterionRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying criteria")
	}
	crits := make([]review.Criterion, 0, len(rows))
	for _, row := range rows {
		crits = append(crits, row.criterion())
	}
	return crits, nil
}

func (repo reviewRepository) GetCriterionByID(ctx context.Context, id string, exec ...core.DBExecutor) (review.Criterion, error) {
	if _, err := uuid.Parse(id); err != nil {
		return review.Criterion{}, review.ErrCriterionNotFound
	}
	exe := getExec(repo.db, exec)

	var row criterionRow
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(`SELECT * FROM criteria WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return review.Criterion{}, review.ErrCriterionNotFound
		}
		return review.Criterion{}, errors.Wrap(err, "finding criterion")
	}
	return row.criterion(), nil
}

func (repo reviewRepository) UpdateCriterion(ctx context.Context, crt review.Criterion, exec ...core.DBExecutor) (review.Criterion, error) {
	exe := getExec(repo.db, exec)

	query := exe.Rebind(`UPDATE criteria SET name = ?, description = ?, max_score = ?, weight = ?, ord = ? WHERE id = ?`)
	res, err := exe.ExecContext(ctx, query, crt.Name, crt.Description, crt.MaxScore, crt.Weight, crt.Order, crt.ID)
	if err != nil {
		return review.Criterion{}, errors.Wrap(err, "updating criterion")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return review.Criterion{}, review.ErrCriterionNotFound
	}
	return crt, nil
}

func (repo reviewRepository) DeleteCriteriaByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	exe := getExec(repo.db, exec)
	query, args, err := sqlx.In(`DELETE FROM criteria WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting criteria")
	}
	if _, err = exe.ExecContext(ctx, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting criteria")
	}
	return nil
}

func (repo reviewRepository) CreateReview(ctx context.Context, rev review.Review, exec ...core.DBExecutor) (review.Review, error) {
	rev.ID = uuid.New().String()
	err := runInTx(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		query := ext.Rebind(`
INSERT INTO reviews (id, project_id, reviewer_id, comments, total_score, is_completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err := ext.ExecContext(ctx, query,
			rev.ID, rev.ProjectID, rev.ReviewerID, rev.Comments, rev.TotalScore, rev.IsCompleted,
			rev.CreatedAt.UTC(), rev.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "inserting review")
		}
		return repo.insertScores(ctx, ext, rev.ID, rev.Scores)
	})
	if err != nil {
		return review.Review{}, err
	}
	return rev, nil
}

func (repo reviewRepository) insertScores(ctx context.Context, ext sqlx.ExtContext, reviewID string, scores []review.CriterionScore) error {
	query := ext.Rebind(`INSERT INTO criteria_scores (review_id, criterion_id, score) VALUES (?, ?, ?)`)
	for _, sc := range scores {
		if _, err := ext.ExecContext(ctx, query, reviewID, sc.CriterionID, sc.Score); err != nil {
			return errors.Wrap(err, "inserting criteria score")
		}
	}
	return nil
}

// loadScores fills in Scores for each given review.
func (repo reviewRepository) loadScores(ctx context.Context, exe sqlx.ExtContext, revs []review.Review) error {
	if len(revs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(revs))
	byID := make(map[string]*review.Review, len(revs))
	for i := range revs {
		ids = append(ids, revs[i].ID)
		byID[revs[i].ID] = &revs[i]
	}

	query, args, err := sqlx.In(`SELECT review_id, criterion_id, score FROM criteria_scores WHERE review_id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "querying criteria scores")
	}
	var rows []struct {
		ReviewID    string  `db:"review_id"`
		CriterionID string  `db:"criterion_id"`
		Score       float64 `db:"score"`
	}
	if err = sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "querying criteria scores")
	}
	for _, row := range rows {
		if rev, ok := byID[row.ReviewID]; ok {
			rev.Scores = append(rev.Scores, review.CriterionScore{CriterionID: row.CriterionID, Score: row.Score})
		}
	}
	return nil
}

func (repo reviewRepository) QueryReviews(ctx context.Context, filter *review.QueryFilter, exec ...core.DBExecutor) ([]review.Review, error) {
	exe := getExec(repo.db, exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.ProjectID != "" {
			conds = append(conds, `project_id = ?`)
			args = append(args, filter.ProjectID)
		}
		if filter.ReviewerID != "" {
			conds = append(conds, `reviewer_id = ?`)
			args = append(args, filter.ReviewerID)
		}
		if filter.CompletedOnly {
			conds = append(conds, `is_completed = TRUE`)
		}
	}

	query := `SELECT * FROM reviews`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at`

	var rows []reviewRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying reviews")
	}
	revs := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		revs = append(revs, row.review())
	}
	if err := repo.loadScores(ctx, exe, revs); err != nil {
		return nil, err
	}
	return revs, nil
}

func (repo reviewRepository) getReview(ctx context.Context, exe sqlx.ExtContext, where string, args ...interface{}) (review.Review, error) {
	var row reviewRow
	if err := sqlx.GetContext(ctx, exe, &row, exe.Rebind(`SELECT * FROM reviews WHERE `+where), args...); err != nil {
		if err == sql.ErrNoRows {
			return review.Review{}, review.ErrNotFound
		}
		return review.Review{}, errors.Wrap(err, "finding review")
	}
	revs := []review.Review{row.review()}
	if err := repo.loadScores(ctx, exe, revs); err != nil {
		return review.Review{}, err
	}
	return revs[0], nil
}

func (repo reviewRepository) GetReviewByID(ctx context.Context, id string, exec ...core.DBExecutor) (review.Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return review.Review{}, review.ErrNotFound
	}
	return repo.getReview(ctx, getExec(repo.db, exec), `id = ?`, id)
}

func (repo reviewRepository) GetReviewByProjectAndReviewer(ctx context.Context, projectID, reviewerID string, exec ...core.DBExecutor) (review.Review, error) {
	return repo.getReview(ctx, getExec(repo.db, exec), `project_id = ? AND reviewer_id = ?`, projectID, reviewerID)
}

func (repo reviewRepository) UpdateReview(ctx context.Context, rev review.Review, exec ...core.DBExecutor) (review.Review, error) {
	err := runInTx(ctx, repo.db, exec, func(ext sqlx.ExtContext) error {
		query := ext.Rebind(`UPDATE reviews SET comments = ?, total_score = ?, is_completed = ?, updated_at = ? WHERE id = ?`)
		res, err := ext.ExecContext(ctx, query, rev.Comments, rev.TotalScore, rev.IsCompleted, rev.UpdatedAt.UTC(), rev.ID)
		if err != nil {
			return errors.Wrap(err, "updating review")
		}
		if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
			return review.ErrNotFound
		}
		if _, err = ext.ExecContext(ctx, ext.Rebind(`DELETE FROM criteria_scores WHERE review_id = ?`), rev.ID); err != nil {
			return errors.Wrap(err, "clearing criteria scores")
		}
		return repo.insertScores(ctx, ext, rev.ID, rev.Scores)
	})
	if err != nil {
		return review.Review{}, err
	}
	return rev, nil
}
