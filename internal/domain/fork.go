package domain

import "time"

// ForkStatus is the lifecycle status of a managed fork
type ForkStatus string

const (
	ForkStatusIdle       ForkStatus = "idle"
	ForkStatusStarting   ForkStatus = "starting"
	ForkStatusRunning    ForkStatus = "running"
	ForkStatusRefreshing ForkStatus = "refreshing"
	ForkStatusError      ForkStatus = "error"
)

// IsServing reports whether a fork in this status can serve requests.
// A refreshing fork still serves until its replacement is swapped in.
func (s ForkStatus) IsServing() bool {
	return s == ForkStatusRunning || s == ForkStatusRefreshing
}

// ForkState is a point-in-time snapshot of one network's fork
type ForkState struct {
	NetworkID    string     `json:"networkId"`
	Status       ForkStatus `json:"status"`
	Port         int        `json:"port,omitempty"`
	BlockNumber  uint64     `json:"blockNumber,omitempty"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// HealthStatus summarizes the health of all forks
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
)
