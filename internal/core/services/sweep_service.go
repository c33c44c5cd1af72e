package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepService runs the transfer expiration sweep on a cron schedule
type SweepService struct {
	transferService *TransferService
	schedule        string
	cron            *cron.Cron
}

// NewSweepService creates a new sweep service
func NewSweepService(transferService *TransferService, schedule string) *SweepService {
	return &SweepService{
		transferService: transferService,
		schedule:        schedule,
		cron:            cron.New(),
	}
}

// Start registers the sweep job and starts the scheduler
func (s *SweepService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("🕐 Transfer sweep scheduled (%s)", s.schedule)
	return nil
}

// RunOnce executes a single sweep pass
func (s *SweepService) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	swept, err := s.transferService.SweepExpired(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Transfer sweep failed after %d rows: %v", swept, err)
	}
}

// Stop stops the scheduler and waits for a running job to finish
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Transfer sweep stopped")
}
