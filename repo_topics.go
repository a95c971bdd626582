package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Topics is the topic store consumed by the subscription manager for
// existence checks and by the REST layer for listings.
type Topics interface {
	GetByID(ctx context.Context, id int64) (*Topic, error)
	List(ctx context.Context) ([]*Topic, error)
	Create(ctx context.Context, title, description string) (*Topic, error)
}

type topics struct {
	db *bun.DB
}

var _ Topics = (*topics)(nil)

// NewTopicsRepository builds the bun-backed topic store
func NewTopicsRepository(db *bun.DB) Topics {
	return &topics{db: db}
}

func (t *topics) GetByID(ctx context.Context, id int64) (*Topic, error) {
	record := &Topic{}

	err := t.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTopicNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve topic")
	}

	return record, nil
}

func (t *topics) List(ctx context.Context) ([]*Topic, error) {
	var records []*Topic

	err := t.db.NewSelect().
		Model(&records).
		Order("title ASC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list topics")
	}

	return records, nil
}

func (t *topics) Create(ctx context.Context, title, description string) (*Topic, error) {
	now := time.Now()
	record := &Topic{
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := t.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create topic")
	}

	return record, nil
}
