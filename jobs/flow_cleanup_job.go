package jobs

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"fuelflow-api/models"
)

// FlowCleanupJob cancels purchase flows abandoned mid-step, so a crashed or
// lost device never wedges the one-active-flow rule for its driver.
type FlowCleanupJob struct {
	db          *gorm.DB
	idleTimeout time.Duration
	ticker      *time.Ticker
	done        chan bool
}

// NewFlowCleanupJob creates a new flow cleanup job
func NewFlowCleanupJob(db *gorm.DB, interval, idleTimeout time.Duration) *FlowCleanupJob {
	return &FlowCleanupJob{
		db:          db,
		idleTimeout: idleTimeout,
		ticker:      time.NewTicker(interval),
		done:        make(chan bool),
	}
}

// Start begins the cleanup job
func (j *FlowCleanupJob) Start() {
	fmt.Println("Purchase flow cleanup job started")

	go func() {
		// Run immediately on start
		j.cleanup()

		for {
			select {
			case <-j.ticker.C:
				j.cleanup()
			case <-j.done:
				return
			}
		}
	}()
}

// Stop halts the cleanup job
func (j *FlowCleanupJob) Stop() {
	j.ticker.Stop()
	j.done <- true
	fmt.Println("Purchase flow cleanup job stopped")
}

func (j *FlowCleanupJob) cleanup() {
	cutoff := time.Now().Add(-j.idleTimeout)

	result := j.db.Model(&models.PurchaseFlow{}).
		Where("state NOT IN ? AND updated_at < ?",
			[]models.FlowState{models.StateCompleted, models.StateCancelled}, cutoff).
		Update("state", models.StateCancelled)

	if result.Error != nil {
		fmt.Printf("Flow cleanup failed: %v\n", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		fmt.Printf("Cancelled %d stale purchase flow(s)\n", result.RowsAffected)
	}
}
