package ports

import (
	"context"

	"github.com/Swapnil565/Jarvis/domain/workflow"
)

// WorkflowRepository archives workflow execution telemetry.
type WorkflowRepository interface {
	SaveRun(ctx context.Context, rec workflow.RunRecord) error
}
