package dao

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/diagnostics-portal/internal/web/detectors/model"
	"github.com/Laisky/diagnostics-portal/library/db/mongo"
	"github.com/Laisky/diagnostics-portal/library/log"
)

const (
	categoriesColName   = "categories"
	defaultPollInterval = time.Minute
)

// MongoSource polls the categories collection and pushes every snapshot.
type MongoSource struct {
	interval time.Duration
	logger   logSDK.Logger
	load     func(ctx context.Context) ([]model.Category, error)
}

// NewMongoSource returns a feed over the categories collection.
// interval <= 0 falls back to one minute.
func NewMongoSource(db mongo.DB, interval time.Duration) (*MongoSource, error) {
	if db == nil {
		return nil, errors.New("mongo db is nil")
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &MongoSource{
		interval: interval,
		logger:   log.Logger.Named("category_mongo_source"),
		load: func(ctx context.Context) ([]model.Category, error) {
			return loadCategories(ctx, db)
		},
	}, nil
}

func loadCategories(ctx context.Context, db mongo.DB) ([]model.Category, error) {
	cur, err := db.GetCol(categoriesColName).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find categories")
	}

	categories := []model.Category{}
	if err = cur.All(ctx, &categories); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}

	return categories, nil
}

// Subscribe implements service.CategorySource.
// A failed poll is logged and skipped. The feed closes when ctx is done.
func (s *MongoSource) Subscribe(ctx context.Context) (<-chan []model.Category, error) {
	feed := make(chan []model.Category)

	go func() {
		defer close(feed)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			categories, err := s.load(ctx)
			if err != nil {
				s.logger.Warn("poll categories", zap.Error(err))
			} else {
				select {
				case feed <- categories:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return feed, nil
}
