package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/model"
)

// RunStage executes the stage's operations in order, Repeat times. The
// context is checked between operations only.
func (e *Engine) RunStage(ctx context.Context, stage *model.Stage) error {
	start := time.Now()
	e.logger.Info("Stage started.", "stage", stage.Name, "repeat", stage.Repeat)

	for iter := 0; iter < stage.Repeat; iter++ {
		for _, name := range stage.Operations {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.Compute(ctx, name); err != nil {
				return fmt.Errorf("stage %q, iteration %d, operation %q: %w", stage.Name, iter, name, err)
			}
		}
	}

	e.logger.Info("Stage finished.", "stage", stage.Name, "duration", time.Since(start))
	return nil
}

// RunStages runs every stage of the interface in declaration order.
func (e *Engine) RunStages(ctx context.Context) error {
	if e.iface == nil {
		return engineerr.Configf("engine has no interface definition, so no stages to run")
	}
	for _, stage := range e.iface.Stages {
		if err := e.RunStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}
