// Package harvest reads numbers written by an external program and reduces
// them to a scalar argument.
package harvest

import (
	"context"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the HarvestDataFromFile factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("HarvestDataFromFile", New)
}

type reducer func(values []float64) float64

var reducers = map[string]reducer{
	"sum": func(v []float64) float64 {
		var s float64
		for _, x := range v {
			s += x
		}
		return s
	},
	"max": func(v []float64) float64 {
		m := math.Inf(-1)
		for _, x := range v {
			m = math.Max(m, x)
		}
		return m
	},
	"min": func(v []float64) float64 {
		m := math.Inf(1)
		for _, x := range v {
			m = math.Min(m, x)
		}
		return m
	},
	"mean": func(v []float64) float64 {
		var s float64
		for _, x := range v {
			s += x
		}
		return s / float64(len(v))
	},
	"last": func(v []float64) float64 { return v[len(v)-1] },
}

// Harvest reads the file on rank 0 and shares the reduced value with every
// rank.
type Harvest struct {
	host        op.Host
	path        string
	calculation string
	reduce      reducer
	output      string
}

// New builds a HarvestDataFromFile operation. A relative file path is
// taken relative to the operations file.
func New(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"file", "calculation"}, []string{"output"}); err != nil {
		return nil, err
	}
	h := &Harvest{host: host}
	file, err := node.RequiredString("file")
	if err != nil {
		return nil, err
	}
	h.path = node.FSInformation.Resolve(file)
	if h.calculation, err = node.StringOr("calculation", "sum"); err != nil {
		return nil, err
	}
	h.calculation = strings.ToLower(h.calculation)
	var ok bool
	if h.reduce, ok = reducers[h.calculation]; !ok {
		return nil, node.Errorf("calculation %q must be one of sum, max, min, mean, last", h.calculation)
	}
	out, err := node.Block("output")
	if err != nil {
		return nil, err
	}
	if out == nil || out.Label(0) == "" {
		return nil, node.Errorf("an output block with an argument label is required")
	}
	h.output = out.Label(0)
	return h, nil
}

// Arguments declares the scalar output.
func (h *Harvest) Arguments() []layout.Argument {
	return []layout.Argument{layout.NewArgument(layout.Scalar, h.output, 1)}
}

// Execute harvests the file again and overwrites the output.
func (h *Harvest) Execute(ctx context.Context) error {
	r := h.host.Registry()
	if _, err := r.Value(h.output); err != nil {
		return err
	}
	value, err := op.OnRoot(h.host.Comm(), "harvest "+h.path, func() ([]float64, error) {
		values, err := readNumbers(h.path)
		if err != nil {
			return nil, err
		}
		return []float64{h.reduce(values)}, nil
	})
	if err != nil {
		return err
	}
	if err := r.SetValue(h.output, value); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Harvested data.", "file", h.path, "calculation", h.calculation, "value", value[0])
	return nil
}

// readNumbers returns every number in the file. Numbers may be separated by
// whitespace or commas; lines starting with '#' are comments.
func readNumbers(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engineerr.IO(err, "reading %s", path)
	}
	var values []float64
	for n, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, engineerr.Validationf("%s:%d: %q is not a number", path, n+1, f)
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, engineerr.Validationf("%s holds no numbers", path)
	}
	return values, nil
}
