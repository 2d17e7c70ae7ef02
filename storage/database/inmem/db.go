package inmemdb

import (
	"sync"

	"github.com/trezcool/sauti/core/report"
	"github.com/trezcool/sauti/core/user"
)

type (
	// DB keeps every table behind a single lock so that multi-table writes are atomic.
	DB struct {
		mutex   sync.RWMutex
		users   map[string]*user.User
		reports map[string]*reportRow
		updates []report.Update // append-only, oldest first
		seq     int
	}

	reportRow struct {
		report.Report
		seq int // insertion order, breaks CreatedAt ties
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:   make(map[string]*user.User),
		reports: make(map[string]*reportRow),
	}
	return db, nil
}

func (db *DB) nextSeq() int {
	db.seq++
	return db.seq
}
