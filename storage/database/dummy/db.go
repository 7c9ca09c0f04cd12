// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"

	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/review"
	"github.com/trezcool/confeval/core/tag"
	"github.com/trezcool/confeval/core/user"
)

type (
	DB struct {
		user       *userTable
		tag        *tagTable
		conference *conferenceTable
		project    *projectTable
		review     *reviewTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	tagTable struct {
		sync.RWMutex
		table map[string]*tag.Tag
	}

	conferenceTable struct {
		sync.RWMutex
		table    map[string]*conference.Conference
		sessions map[string]*conference.Session
	}

	projectTable struct {
		sync.RWMutex
		table map[string]*project.Project
	}

	reviewTable struct {
		sync.RWMutex
		table    map[string]*review.Review
		criteria map[string]*review.Criterion
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		tag:        &tagTable{table: make(map[string]*tag.Tag)},
		conference: &conferenceTable{table: make(map[string]*conference.Conference), sessions: make(map[string]*conference.Session)},
		project:    &projectTable{table: make(map[string]*project.Project)},
		review:     &reviewTable{table: make(map[string]*review.Review), criteria: make(map[string]*review.Criterion)},
	}
	return db, nil
}
