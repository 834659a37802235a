package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/metrics"
	"github.com/Ariffin97/portal-mpa-sub001/models"
)

// Notifier is what the workflow calls after a committed change. It never
// reports failure.
type Notifier interface {
	Notify(ctx context.Context, app *models.Application, kind Kind)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, *models.Application, Kind) {}

// DefaultSendTimeout bounds one delivery.
const DefaultSendTimeout = 10 * time.Second

// Dispatcher composes in the caller's goroutine and delivers in a goroutine
// of its own, so Notify returns without waiting on the sender.
type Dispatcher struct {
	composer *Composer
	sender   Sender
	timeout  time.Duration
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(composer *Composer, sender Sender, log *zap.Logger) *Dispatcher {
	return &Dispatcher{composer: composer, sender: sender, timeout: DefaultSendTimeout, log: log}
}

func (d *Dispatcher) Notify(ctx context.Context, app *models.Application, kind Kind) {
	msg, err := d.composer.Compose(app, kind)
	if err != nil {
		d.log.Error("compose notification", zap.String("application_id", app.ApplicationID), zap.Error(err))
		return
	}
	// The request may finish before delivery does.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := deliver(sendCtx, d.sender, msg); err != nil {
			logFailure(d.log, msg, err)
		}
	}()
}

// Wait blocks until every delivery started by Notify has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func logFailure(log *zap.Logger, msg Message, err error) {
	log.Warn("notification not delivered",
		zap.String("notification_id", msg.ID),
		zap.String("application_id", msg.ApplicationID),
		zap.String("kind", string(msg.Kind)),
		zap.Error(apperrors.Notification(err)),
	)
}

// QueueDispatcher composes messages and pushes them onto a Redis list for a
// Worker to deliver.
type QueueDispatcher struct {
	composer *Composer
	rdb      redis.Cmdable
	queue    string
	log      *zap.Logger
}

func NewQueueDispatcher(composer *Composer, rdb redis.Cmdable, queue string, log *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{composer: composer, rdb: rdb, queue: queue, log: log}
}

func (q *QueueDispatcher) Notify(ctx context.Context, app *models.Application, kind Kind) {
	msg, err := q.composer.Compose(app, kind)
	if err != nil {
		q.log.Error("compose notification", zap.String("application_id", app.ApplicationID), zap.Error(err))
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		q.log.Error("encode notification", zap.String("application_id", app.ApplicationID), zap.Error(err))
		return
	}
	if err := q.rdb.LPush(context.WithoutCancel(ctx), q.queue, payload).Err(); err != nil {
		metrics.NotificationsFailed.WithLabelValues("queue").Inc()
		logFailure(q.log, msg, err)
		return
	}
	q.log.Debug("notification queued",
		zap.String("notification_id", msg.ID),
		zap.String("application_id", msg.ApplicationID),
	)
}

// Worker drains the queue filled by QueueDispatcher.
type Worker struct {
	rdb         *redis.Client
	queue       string
	sender      Sender
	pollTimeout time.Duration
	sendTimeout time.Duration
	log         *zap.Logger
}

func NewWorker(rdb *redis.Client, queue string, sender Sender, log *zap.Logger) *Worker {
	return &Worker{
		rdb:         rdb,
		queue:       queue,
		sender:      sender,
		pollTimeout: time.Second,
		sendTimeout: DefaultSendTimeout,
		log:         log,
	}
}

// Run delivers queued messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("notification worker started", zap.String("queue", w.queue))
	for {
		if ctx.Err() != nil {
			w.log.Info("notification worker stopped")
			return nil
		}
		if _, err := w.ProcessOne(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("read notification queue", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.pollTimeout):
			}
		}
	}
}

// ProcessOne waits up to the poll timeout for one message and delivers it.
// It reports whether a message was taken off the queue. Delivery failures
// are logged, not returned.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	res, err := w.rdb.BRPop(ctx, w.pollTimeout, w.queue).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		w.log.Error("drop malformed notification", zap.Error(err))
		return true, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := deliver(sendCtx, w.sender, msg); err != nil {
		logFailure(w.log, msg, err)
	}
	return true, nil
}
