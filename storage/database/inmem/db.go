// Package inmemdb provides mutex-guarded in-memory repositories,
// mainly for tests and local hacking without a Postgres around.
package inmemdb

import (
	"sync"

	"github.com/trezcool/mafunzo/core/progress"
	"github.com/trezcool/mafunzo/core/training"
	"github.com/trezcool/mafunzo/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User // keyed by ID
	}

	trainingTable struct {
		mutex sync.RWMutex
		table map[string]*training.Training // keyed by ID
	}

	progressKey struct {
		userID     string
		trainingID string
	}

	progressTable struct {
		mutex   sync.RWMutex
		records map[progressKey]*progress.Record
		ratings map[progressKey]*progress.Rating
	}

	DB struct {
		user     *userTable
		training *trainingTable
		progress *progressTable
	}
)

func NewDB() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		training: &trainingTable{table: make(map[string]*training.Training)},
		progress: &progressTable{
			records: make(map[progressKey]*progress.Record),
			ratings: make(map[progressKey]*progress.Rating),
		},
	}
}
