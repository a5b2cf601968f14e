package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/latoulicious/arise-companion/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table handles database operations for one entity table. T is the gorm
// model and K the type of its "id" primary key.
type Table[T any, K comparable] struct {
	db         *gorm.DB
	nameColumn string
	order      []string
	preload    []string
}

// NewTable creates a repository over T's table. nameColumn is the column
// checked for uniqueness; order lists the ORDER BY clauses used by List.
func NewTable[T any, K comparable](db *gorm.DB, nameColumn string, order ...string) *Table[T, K] {
	if len(order) == 0 {
		order = []string{nameColumn + " ASC"}
	}
	return &Table[T, K]{db: db, nameColumn: nameColumn, order: order}
}

// WithPreload loads the named associations on List and Get
func (r *Table[T, K]) WithPreload(associations ...string) *Table[T, K] {
	r.preload = append(r.preload, associations...)
	return r
}

func (r *Table[T, K]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, assoc := range r.preload {
		q = q.Preload(assoc)
	}
	return q
}

// List returns every row in the configured order
func (r *Table[T, K]) List(ctx context.Context) ([]T, error) {
	var rows []T
	q := r.query(ctx)
	for _, o := range r.order {
		q = q.Order(o)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns the row with the given id, or database.ErrNotFound
func (r *Table[T, K]) Get(ctx context.Context, id K) (*T, error) {
	var row T
	if err := r.query(ctx).First(&row, "id = ?", id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// NameExists reports whether a row other than exclude has exactly this trimmed name
func (r *Table[T, K]) NameExists(ctx context.Context, name string, exclude *K) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(new(T)).Where(r.nameColumn+" = ?", strings.TrimSpace(name))
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s uniqueness: %w", r.nameColumn, err)
	}
	return count > 0, nil
}

// Create inserts the row; associations are never written implicitly
func (r *Table[T, K]) Create(ctx context.Context, row *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
}

// Update applies changes (column -> value) to the row with the given id
func (r *Table[T, K]) Update(ctx context.Context, id K, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Restore overwrites every column of the stored row with row's values;
// associations are left alone
func (r *Table[T, K]) Restore(ctx context.Context, row *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(row).Error
}

// Delete removes the row with the given id
func (r *Table[T, K]) Delete(ctx context.Context, id K) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Count returns the number of rows
func (r *Table[T, K]) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
