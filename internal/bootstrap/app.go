package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	"wellnesshub/internal/app"
	"wellnesshub/internal/cache"
	"wellnesshub/internal/config"
	"wellnesshub/internal/logger"
	mongoClient "wellnesshub/internal/platform/mongo"
	mysqlClient "wellnesshub/internal/platform/mysql"
	"wellnesshub/internal/platform/objectstore"
	rabbitmqClient "wellnesshub/internal/platform/rabbitmq"
	redisClient "wellnesshub/internal/platform/redis"
	sqliteClient "wellnesshub/internal/platform/sqlite"
	"wellnesshub/internal/repository"
	"wellnesshub/internal/repository/mongorepo"
	"wellnesshub/internal/worker"
)

// App owns every long-lived connection. Redis, RabbitMQ and S3 are optional
// and stay nil when not configured.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	SQL         *gorm.DB
	MongoClient *mongo.Client
	Mongo       *mongo.Database
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Objects     *objectstore.S3Store
	FeedWorker  *worker.FeedRefreshWorker

	Services  Services
	StartedAt time.Time
}

type Services struct {
	Auth     *app.AuthService
	Sessions *app.SessionService
	Assets   *app.AssetService
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			log.Warn("release partially started resources failed", logger.Error(closeErr))
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	sessionStore, userStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	var feed app.FeedCache
	var feedCache *cache.FeedCache
	if cfg.Redis.Addr != "" {
		a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		feedCache = cache.NewFeedCache(a.Redis, time.Duration(cfg.Redis.FeedTTLSeconds)*time.Second)
		feed = feedCache
	}

	var events app.SessionEventPublisher
	if cfg.RabbitMQ.URL != "" {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		events = rabbitmqClient.NewEventPublisher(a.MQConn, cfg.RabbitMQ.SessionEventQueue)

		if feedCache != nil {
			a.FeedWorker = worker.NewFeedRefreshWorker(a.MQConn, sessionStore, feedCache, cfg.RabbitMQ.SessionEventQueue, a.Logger)
			if err := a.FeedWorker.Start(ctx); err != nil {
				return fmt.Errorf("start feed refresh worker failed: %w", err)
			}
		}
	}

	var objects app.ObjectStorage
	if cfg.S3.Bucket != "" {
		a.Objects, err = objectstore.NewS3(ctx, objectstore.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return err
		}
		objects = a.Objects
	}

	a.Services = Services{
		Auth: app.NewAuthService(
			userStore,
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		),
		Sessions: app.NewSessionService(sessionStore, feed, events, a.Logger),
		Assets:   app.NewAssetService(objects, cfg.S3.MaxUploadBytes),
	}

	a.Logger.Info("application initialised",
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("feed_cache", feed != nil),
		slog.Bool("session_events", events != nil),
		slog.Bool("uploads", objects != nil),
	)
	return nil
}

func (a *App) openStore(ctx context.Context) (app.SessionStore, app.UserStore, error) {
	cfg := a.Config
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		client, db, err := mongoClient.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		a.MongoClient, a.Mongo = client, db
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			return nil, nil, err
		}
		return mongorepo.NewSessionRepository(db), mongorepo.NewUserRepository(db), nil
	case config.StorageSQLite:
		db, err := sqliteClient.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		a.SQL = db
	default:
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		a.SQL = db
	}

	if err := repository.AutoMigrate(a.SQL); err != nil {
		return nil, nil, err
	}
	return repository.NewSessionRepository(a.SQL), repository.NewUserRepository(a.SQL), nil
}

func (a *App) Close() error {
	var errs []error
	if a.FeedWorker != nil {
		a.FeedWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq failed: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis failed: %w", err))
		}
	}
	if a.MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo failed: %w", err))
		}
	}
	if a.SQL != nil {
		if sqlDB, err := a.SQL.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sql db failed: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
