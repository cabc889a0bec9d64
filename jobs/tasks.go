// Package jobs hosts background tasks that run outside the request path.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockIntegrityScan compares item stock against the ledger.
	TaskStockIntegrityScan = "stock:integrity_scan"
)

// StockIntegrityPayload configures a scan run.
type StockIntegrityPayload struct {
	// IncludeVoided also sums voided transfers, for debugging.
	IncludeVoided bool `json:"includeVoided"`
}

// NewStockIntegrityTask constructs an Asynq task.
func NewStockIntegrityTask(payload StockIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockIntegrityScan, data), nil
}
