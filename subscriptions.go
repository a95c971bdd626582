package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// SubscriptionManager enforces at-most-one membership per (user, topic)
// pair with idempotent add/remove semantics. The check-then-act
// sequence runs inside one transaction, and the composite unique
// constraint on subscriptions makes the guarantee hold even when two
// writers race past the check.
type SubscriptionManager struct {
	repo   RepositoryManager
	logger Logger
}

// NewSubscriptionManager returns a manager over the shared repositories
func NewSubscriptionManager(repo RepositoryManager) *SubscriptionManager {
	return &SubscriptionManager{
		repo:   repo,
		logger: defLogger{},
	}
}

func (m *SubscriptionManager) WithLogger(logger Logger) *SubscriptionManager {
	m.logger = logger
	return m
}

// Subscribe adds the (user, topic) membership. It fails with
// ErrIdentityNotFound / ErrTopicNotFound when either entity is missing,
// and with ErrAlreadySubscribed when the pair already exists.
func (m *SubscriptionManager) Subscribe(ctx context.Context, userID, topicID int64) error {
	return m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.ensureEntities(ctx, tx, userID, topicID); err != nil {
			return err
		}

		exists, err := m.membershipExists(ctx, tx, userID, topicID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadySubscribed
		}

		record := &Subscription{
			UserID:    userID,
			TopicID:   topicID,
			CreatedAt: time.Now(),
		}

		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			// A racing writer inserted between the check and here; the
			// constraint turns the second insert into the same conflict.
			if IsUniqueViolation(err) {
				return ErrAlreadySubscribed
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to persist subscription")
		}

		return nil
	})
}

// Unsubscribe removes the membership, failing with ErrNotSubscribed
// when no membership exists. Symmetric to Subscribe.
func (m *SubscriptionManager) Unsubscribe(ctx context.Context, userID, topicID int64) error {
	return m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.ensureEntities(ctx, tx, userID, topicID); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*Subscription)(nil)).
			Where("?TableAlias.user_id = ?", userID).
			Where("?TableAlias.topic_id = ?", topicID).
			Exec(ctx)

		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to remove subscription")
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to inspect subscription delete")
		}
		if affected == 0 {
			return ErrNotSubscribed
		}

		return nil
	})
}

// IsSubscribed reports whether the (user, topic) membership exists
func (m *SubscriptionManager) IsSubscribed(ctx context.Context, userID, topicID int64) (bool, error) {
	var exists bool
	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		exists, err = m.membershipExists(ctx, tx, userID, topicID)
		return err
	})
	return exists, err
}

// SubscribedTopicIDs lists the topic ids the user subscribes to
func (m *SubscriptionManager) SubscribedTopicIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	ids := map[int64]bool{}

	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var rows []int64
		err := tx.NewSelect().
			Model((*Subscription)(nil)).
			Column("topic_id").
			Where("?TableAlias.user_id = ?", userID).
			Scan(ctx, &rows)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to list subscriptions")
		}
		for _, id := range rows {
			ids[id] = true
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (m *SubscriptionManager) ensureEntities(ctx context.Context, tx bun.Tx, userID, topicID int64) error {
	userExists, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", userID).
		Exists(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check user existence")
	}
	if !userExists {
		return ErrIdentityNotFound
	}

	topicExists, err := tx.NewSelect().
		Model((*Topic)(nil)).
		Where("?TableAlias.id = ?", topicID).
		Exists(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check topic existence")
	}
	if !topicExists {
		return ErrTopicNotFound
	}

	return nil
}

func (m *SubscriptionManager) membershipExists(ctx context.Context, tx bun.Tx, userID, topicID int64) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*Subscription)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.topic_id = ?", topicID).
		Exists(ctx)

	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check subscription existence")
	}

	return exists, nil
}
