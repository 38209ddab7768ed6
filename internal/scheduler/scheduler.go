package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/config"
	"github.com/ndewijer/Tax-Loss-Harvester-Backend/internal/service"
)

// scanTimeout bounds a single scheduled scan, covering the broker round trips.
const scanTimeout = 2 * time.Minute

// Scheduler runs the recurring background jobs: the harvest scan, the
// expired-queue sweep, and the resolved-restriction retention sweep.
type Scheduler struct {
	cron            *cron.Cron
	scannerService  *service.ScannerService
	washSaleService *service.WashSaleService
	cfg             config.SchedulerConfig
	ctx             context.Context
}

// NewScheduler creates a new Scheduler. Cron specs use the six-field form
// with a leading seconds field.
func NewScheduler(ctx context.Context, scannerService *service.ScannerService, washSaleService *service.WashSaleService, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithSeconds()),
		scannerService:  scannerService,
		washSaleService: washSaleService,
		cfg:             cfg,
		ctx:             ctx,
	}
}

// RegisterAll registers the scan, queue-sweep, and retention-sweep tasks.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.cron.AddFunc(s.cfg.ScanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.QueueSweepCron, s.queueSweepTask); err != nil {
		return fmt.Errorf("register queue sweep task: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.RetentionSweepCron, s.retentionSweepTask); err != nil {
		return fmt.Errorf("register retention sweep task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// RunScanNow executes the scan task immediately, outside its cron schedule.
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	ctx, cancel := context.WithTimeout(s.ctx, scanTimeout)
	defer cancel()

	result, err := s.scannerService.Scan(ctx)
	if err != nil {
		log.Printf("Scheduled scan failed: %v", err)
		return
	}
	log.Printf("Scheduled scan found %d opportunities across %d positions (potential benefit %s)",
		len(result.Opportunities), result.PositionsScanned, result.TotalPotentialBenefit.StringFixed(2))
}

func (s *Scheduler) queueSweepTask() {
	removed, err := s.scannerService.ClearExpiredPending()
	if err != nil {
		log.Printf("Queue sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Queue sweep removed %d expired pending harvests", removed)
	}
}

func (s *Scheduler) retentionSweepTask() {
	removed, err := s.washSaleService.Cleanup(s.cfg.RetentionDays, time.Now())
	if err != nil {
		log.Printf("Retention sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Retention sweep removed %d resolved restrictions older than %d days", removed, s.cfg.RetentionDays)
	}
}
