package usecase

import (
	"time"

	"github.com/trebuchet-org/deltasim/internal/domain"
)

// HealthReport summarizes the service and its forks
type HealthReport struct {
	Status    domain.HealthStatus         `json:"status"`
	Forks     map[string]domain.ForkState `json:"forks"`
	Uptime    int64                       `json:"uptime"`
	Timestamp string                      `json:"timestamp"`
}

// ForkHealth reports fork statuses
type ForkHealth struct {
	forks     ForkController
	startedAt time.Time
	now       func() time.Time
}

// NewForkHealth creates a new ForkHealth use case. Uptime is measured from construction.
func NewForkHealth(forks ForkController) *ForkHealth {
	return &ForkHealth{
		forks:     forks,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Run builds the health report. The service is degraded while any fork is in error.
func (uc *ForkHealth) Run() *HealthReport {
	now := uc.now()
	report := &HealthReport{
		Status:    domain.HealthHealthy,
		Forks:     make(map[string]domain.ForkState),
		Uptime:    int64(now.Sub(uc.startedAt).Seconds()),
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	for _, state := range uc.forks.GetAllForkStatuses() {
		report.Forks[state.NetworkID] = state
		if state.Status == domain.ForkStatusError {
			report.Status = domain.HealthDegraded
		}
	}

	return report
}
