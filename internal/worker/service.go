// Package worker runs the asynq server that processes background tasks.
package worker

import (
	"context"
	"errors"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/calibra/backend/internal/infrastructure/queue"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Service is the asynq queue server
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewService creates the worker server
func NewService(qcfg config.QueueConfig, rcfg config.RedisConfig, consumer *Consumer, logger *zap.Logger) (*Service, error) {
	if !qcfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(qcfg, rcfg)
	serverCfg.Logger = zapAdapter{logger.Sugar()}
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
		logger.Error("task failed", zap.String("task", task.Type()), zap.Error(err))
	})

	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{server: asynq.NewServer(opt, serverCfg), mux: mux, logger: logger}, nil
}

// Start processes tasks until Stop is called
func (s *Service) Start() error {
	s.logger.Info("worker started")
	return s.server.Start(s.mux)
}

// Stop waits for in-flight tasks and shuts the server down
func (s *Service) Stop() {
	s.server.Shutdown()
	s.logger.Info("worker stopped")
}

// zapAdapter satisfies asynq.Logger
type zapAdapter struct {
	s *zap.SugaredLogger
}

func (a zapAdapter) Debug(args ...any) { a.s.Debug(args...) }
func (a zapAdapter) Info(args ...any)  { a.s.Info(args...) }
func (a zapAdapter) Warn(args ...any)  { a.s.Warn(args...) }
func (a zapAdapter) Error(args ...any) { a.s.Error(args...) }
func (a zapAdapter) Fatal(args ...any) { a.s.Fatal(args...) }
