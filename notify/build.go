package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/config"
)

// Setup builds the notifier selected by cfg. When cfg.Queue is set it also
// returns the Worker that must be run to drain the queue; otherwise the
// worker is nil.
func Setup(ctx context.Context, cfg config.NotifyConfig, rdb *redis.Client, log *zap.Logger) (Notifier, *Worker, error) {
	if cfg.Driver == "none" {
		return Nop{}, nil, nil
	}

	var sender Sender = NewLogSender(log)
	if cfg.Driver == "ses" {
		awsCfg, err := LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		senders := []Sender{NewSESSenderFromConfig(awsCfg, cfg.FromAddress)}
		if cfg.SMSEnabled {
			senders = append(senders, NewSNSSenderFromConfig(awsCfg))
		}
		sender = NewMultiSender(senders...)
	}

	composer, err := NewComposer()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Queue {
		return NewQueueDispatcher(composer, rdb, cfg.QueueName, log),
			NewWorker(rdb, cfg.QueueName, sender, log), nil
	}
	return NewDispatcher(composer, sender, log), nil, nil
}
