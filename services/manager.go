package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pokuclick/interfaces"
)

// ServiceManager manages multiple background services
type ServiceManager struct {
	services []namedService
	logger   *zap.Logger
	wg       sync.WaitGroup

	mu     sync.Mutex
	failed []error
}

type namedService struct {
	name    string
	service interfaces.BackgroundService
}

// NewServiceManager creates a new service manager
func NewServiceManager(logger *zap.Logger) *ServiceManager {
	return &ServiceManager{
		services: make([]namedService, 0),
		logger:   logger,
	}
}

// AddService adds a service to be managed
func (sm *ServiceManager) AddService(name string, service interfaces.BackgroundService) {
	sm.services = append(sm.services, namedService{name: name, service: service})
}

// StartAll starts all registered services
func (sm *ServiceManager) StartAll(ctx context.Context) {
	for _, ns := range sm.services {
		sm.wg.Add(1)
		go func(ns namedService) {
			defer sm.wg.Done()

			fields := []zap.Field{zap.String("service", ns.name)}
			if ticker, ok := ns.service.(interfaces.TickerService); ok {
				fields = append(fields, zap.String("interval", ticker.GetTickerInterval()))
			}

			err := ns.service.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				sm.logger.Error("Service stopped with error", append(fields, zap.Error(err))...)
				sm.mu.Lock()
				sm.failed = append(sm.failed, fmt.Errorf("%s: %w", ns.name, err))
				sm.mu.Unlock()
				return
			}
			sm.logger.Info("Service stopped gracefully", fields...)
		}(ns)
	}
	sm.logger.Info("All services started", zap.Int("service_count", len(sm.services)))
}

// WaitForAll waits for all services to stop and returns their joined errors
func (sm *ServiceManager) WaitForAll() error {
	sm.wg.Wait()
	sm.logger.Info("All services stopped")

	sm.mu.Lock()
	defer sm.mu.Unlock()
	return errors.Join(sm.failed...)
}
