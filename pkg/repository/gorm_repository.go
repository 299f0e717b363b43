// Package repository holds generic gorm helpers shared by relational stores.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/narwhalmedia/watchlist/pkg/errors"
)

// Create inserts entity. Unique-constraint violations become Conflict.
func Create[T any](ctx context.Context, db *gorm.DB, entity *T) error {
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		if pkgerrors.IsDuplicateError(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgerrors.Conflict("entity already exists")
		}
		return err
	}
	return nil
}

// FindWhere returns every entity matching query in the given order. An empty
// query matches all rows.
func FindWhere[T any](ctx context.Context, db *gorm.DB, order string, query string, args ...interface{}) ([]T, error) {
	var entities []T
	q := db.WithContext(ctx)
	if query != "" {
		q = q.Where(query, args...)
	}
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// ExistsWhere reports whether any entity matches query.
func ExistsWhere[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (bool, error) {
	var count int64
	var entity T
	if err := db.WithContext(ctx).Model(&entity).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteWhere removes every entity matching query and returns the count.
func DeleteWhere[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (int64, error) {
	var entity T
	result := db.WithContext(ctx).Where(query, args...).Delete(&entity)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
