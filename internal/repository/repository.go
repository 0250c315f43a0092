// Package repository is the data-access boundary. Every method returns
// errors already translated into the apierrors taxonomy.
package repository

import (
	"context"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"gorm.io/gorm"
)

// groupCount is the row shape of every "GROUP BY x, COUNT(*)" query
type groupCount struct {
	GroupID string
	Total   int64
}

func countBy(ctx context.Context, db *gorm.DB, model interface{}, column string, ids []string, resource string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []groupCount
	err := db.WithContext(ctx).
		Model(model).
		Select(column+" AS group_id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, apierrors.FromStore(err, resource)
	}

	for _, row := range rows {
		out[row.GroupID] = row.Total
	}
	return out, nil
}

// Page bounds a list query. Limit <= 0 means unbounded.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	return db
}
