package repository

import (
	"context"
	"errors"

	sessiondomain "github.com/atmodecor/tally/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type repo struct {
	db  *gorm.DB
	log *zap.Logger
}

type RepositoryParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewRepository(p RepositoryParam) sessiondomain.Repository {
	return &repo{
		db:  p.DB,
		log: p.Log.Named("session.repository"),
	}
}

func (r *repo) FindOpen(ctx context.Context) (*sessiondomain.Session, []sessiondomain.Order, error) {
	var sess sessiondomain.Session
	err := r.db.WithContext(ctx).
		Where("is_open = ?", true).
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var orders []sessiondomain.Order
	err = r.db.WithContext(ctx).
		Where("session_id = ?", sess.ID).
		Order("seq ASC").
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}

	return &sess, orders, nil
}

func (r *repo) Create(ctx context.Context, sess *sessiondomain.Session) error {
	return r.db.WithContext(ctx).Create(sess).Error
}

func (r *repo) CommitOrder(ctx context.Context, sess *sessiondomain.Session, order *sessiondomain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(sess).Error; err != nil {
			return err
		}
		return tx.Create(order).Error
	})
}

func (r *repo) UpdateTotals(ctx context.Context, sess *sessiondomain.Session) error {
	return r.db.WithContext(ctx).Save(sess).Error
}

func (r *repo) Archive(ctx context.Context, sess *sessiondomain.Session, entry *sessiondomain.Archive) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Save(sess).Error
	})
}
