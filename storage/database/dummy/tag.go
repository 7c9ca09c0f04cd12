package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/tag"
)

type tagRepository struct {
	db *tagTable
}

var _ tag.Repository = (*tagRepository)(nil) // interface compliance check

func NewTagRepository(db *DB) *tagRepository {
	return &tagRepository{db: db.tag}
}

func (repo *tagRepository) query() []tag.Tag {
	tags := make([]tag.Tag, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		tags = append(tags, *t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

func (repo *tagRepository) CheckTagUniqueness(ctx context.Context, name string, excludedTags []tag.Tag, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.query() {
		var excluded bool
		for _, ex := range excludedTags {
			if ex.ID == t.ID {
				excluded = true
				break
			}
		}
		if !excluded && strings.EqualFold(t.Name, name) {
			return tag.ErrNameExists
		}
	}
	return nil
}

func (repo *tagRepository) CreateTag(ctx context.Context, t tag.Tag, exec ...core.DBExecutor) (tag.Tag, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *tagRepository) QueryAllTags(ctx context.Context, exec ...core.DBExecutor) ([]tag.Tag, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *tagRepository) GetTagByID(ctx context.Context, id string, exec ...core.DBExecutor) (tag.Tag, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return tag.Tag{}, tag.ErrNotFound
}

func (repo *tagRepository) UpdateTag(ctx context.Context, t tag.Tag, exec ...core.DBExecutor) (tag.Tag, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[t.ID]
	if !ok {
		return tag.Tag{}, tag.ErrNotFound
	}
	if t.Name != "" {
		existing.Name = t.Name
	}
	if t.Description != "" {
		existing.Description = t.Description
	}
	return *existing, nil
}

func (repo *tagRepository) DeleteTagsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
