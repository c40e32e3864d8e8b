package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/model"
)

// Validate performs a parity check between the configuration and the
// compiled factories: every operation's function must be registered and
// every stage may only name defined operations. iface may be nil.
func (r *Registry) Validate(ctx context.Context, operations []*model.Node, iface *model.Interface) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	defined := make(map[string]struct{}, len(operations))
	for _, node := range operations {
		defined[node.Name()] = struct{}{}
		if _, ok := r.factories[node.Function()]; !ok {
			errs = append(errs, fmt.Sprintf("operation '%s' (%s): no factory registered for function '%s'; registered: %v",
				node.Name(), node.Where(), node.Function(), r.Functions()))
		}
	}

	if iface != nil {
		for _, stage := range iface.Stages {
			if len(stage.Operations) == 0 {
				logger.Warn("Stage has no operations.", "stage", stage.Name)
			}
			for _, name := range stage.Operations {
				if _, ok := defined[name]; !ok {
					errs = append(errs, fmt.Sprintf("stage '%s': operation '%s' is not defined", stage.Name, name))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: registry validation failed:\n- %s", engineerr.ErrConfiguration, strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validated.", "operations", len(operations), "functions", len(r.factories))
	return nil
}
