package repository

import (
	"time"

	"gorm.io/gorm"
)

// Period is an optional inclusive date range. Zero bounds are open.
type Period struct {
	From time.Time
	To   time.Time
}

// end is the exclusive upper bound: the day after To.
func (p Period) end() time.Time {
	return p.To.AddDate(0, 0, 1)
}

func (p Period) apply(db *gorm.DB, column string) *gorm.DB {
	if !p.From.IsZero() {
		db = db.Where(column+" >= ?", p.From)
	}
	if !p.To.IsZero() {
		db = db.Where(column+" < ?", p.end())
	}
	return db
}
