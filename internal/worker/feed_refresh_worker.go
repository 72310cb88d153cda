package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"wellnesshub/internal/logger"
	"wellnesshub/internal/model"
	"wellnesshub/internal/platform/rabbitmq"
)

type PublishedSource interface {
	ListPublished(ctx context.Context) ([]model.PublishedSession, error)
}

type FeedWriter interface {
	SetPublished(ctx context.Context, sessions []model.PublishedSession) error
	Invalidate(ctx context.Context) error
}

// FeedRefreshWorker consumes session events and re-warms the published feed
// cache from the store.
type FeedRefreshWorker struct {
	conn      *amqp.Connection
	source    PublishedSource
	feed      FeedWriter
	queueName string
	log       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFeedRefreshWorker(conn *amqp.Connection, source PublishedSource, feed FeedWriter, queueName string, log *slog.Logger) *FeedRefreshWorker {
	if log == nil {
		log = slog.Default()
	}
	return &FeedRefreshWorker{
		conn:      conn,
		source:    source,
		feed:      feed,
		queueName: queueName,
		log:       log.With(logger.Component("feed_refresh_worker")),
	}
}

func (w *FeedRefreshWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					w.log.Error("refresh feed failed", logger.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// Handle processes one event payload. Every event type triggers a full
// refresh of the feed.
func (w *FeedRefreshWorker) Handle(ctx context.Context, body []byte) error {
	var event model.SessionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode session event failed: %w", err)
	}

	if err := w.feed.Invalidate(ctx); err != nil {
		return err
	}
	sessions, err := w.source.ListPublished(ctx)
	if err != nil {
		return err
	}
	if err := w.feed.SetPublished(ctx, sessions); err != nil {
		return err
	}

	w.log.Debug("feed refreshed",
		slog.String("event", event.Type),
		slog.String("session_id", event.SessionID),
		slog.Int("published", len(sessions)))
	return nil
}

func (w *FeedRefreshWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
