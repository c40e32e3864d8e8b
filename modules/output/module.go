// Package output writes selected arguments to CSV files, one file per
// execution.
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the WriteOutput factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("WriteOutput", New)
}

// Header is the first row of every output file.
var Header = []string{"argument", "layout", "global_id", "value"}

// WriteOutput gathers its inputs on rank 0 and writes them to
// <directory>/iteration_<n>.csv. The iteration counter is its only state.
type WriteOutput struct {
	host      op.Host
	directory string
	inputs    []layout.Argument
	iteration int
}

type row struct {
	gid   int
	value float64
}

// New builds a WriteOutput operation from
//
//	operation "WriteOutput" "<name>" {
//	  directory = "output"
//	  input "<arg>" { layout = "nodal_field" }
//	}
func New(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"directory"}, []string{"input"}); err != nil {
		return nil, err
	}
	dir, err := node.StringOr("directory", "output")
	if err != nil {
		return nil, err
	}
	w := &WriteOutput{host: host, directory: node.FSInformation.Resolve(dir)}

	for _, in := range node.Blocks("input") {
		if err := in.Allow([]string{"layout"}, nil); err != nil {
			return nil, err
		}
		if in.Label(0) == "" {
			return nil, in.Errorf("input block needs an argument label")
		}
		ls, err := in.StringOr("layout", "")
		if err != nil {
			return nil, err
		}
		l, err := op.ParseLayout(ls, layout.NodeField, layout.Scalar, layout.NodeField, layout.ElementField)
		if err != nil {
			return nil, err
		}
		arg := layout.NewArgument(l, in.Label(0), 0)
		arg.Write = true
		w.inputs = append(w.inputs, arg)
	}
	if len(w.inputs) == 0 {
		return nil, node.Errorf("at least one input block is required")
	}
	return w, nil
}

// Arguments declares every input for output.
func (w *WriteOutput) Arguments() []layout.Argument { return w.inputs }

// Execute writes the next iteration file. Every rank takes part in the
// gathers; only rank 0 touches the file system.
func (w *WriteOutput) Execute(ctx context.Context) error {
	gathered := make([][]row, len(w.inputs))
	for i, arg := range w.inputs {
		rows, err := w.gather(arg)
		if err != nil {
			return err
		}
		gathered[i] = rows
	}

	path := filepath.Join(w.directory, fmt.Sprintf("iteration_%d.csv", w.iteration))
	if _, err := op.OnRoot(w.host.Comm(), "write "+path, func() ([]float64, error) {
		return nil, w.write(path, gathered)
	}); err != nil {
		return err
	}
	w.iteration++
	ctxlog.FromContext(ctx).Debug("Wrote output.", "file", path, "arguments", len(w.inputs))
	return nil
}

// gather collects the global value of arg in global-ID order. Scalars are
// taken from rank 0 and indexed from zero.
func (w *WriteOutput) gather(arg layout.Argument) ([]row, error) {
	r := w.host.Registry()
	c := w.host.Comm()

	var values []float64
	var ids []int
	switch arg.Layout {
	case layout.Scalar:
		v, err := r.Value(arg.Name)
		if err != nil {
			return nil, err
		}
		rows := make([]row, len(v))
		for i, x := range v {
			rows[i] = row{gid: i, value: x}
		}
		return rows, nil
	case layout.NodeField:
		v, err := r.NodeField(arg.Name)
		if err != nil {
			return nil, err
		}
		values = v.Assembled()
		ids = w.host.Mesh().OwnedNodes
	default:
		col, err := op.Data(r, layout.ElementField, arg.Name)
		if err != nil {
			return nil, err
		}
		values = col
		ids = w.host.Mesh().ElementIDs()
	}

	allValues := c.AllGather(values)
	allIDs := c.AllGatherInts(ids)
	var rows []row
	for rank := range allValues {
		for i, x := range allValues[rank] {
			rows = append(rows, row{gid: allIDs[rank][i], value: x})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].gid < rows[j].gid })
	return rows, nil
}

func (w *WriteOutput) write(path string, gathered [][]row) error {
	if err := os.MkdirAll(w.directory, 0o755); err != nil {
		return engineerr.IO(err, "creating output directory %s", w.directory)
	}
	f, err := os.Create(path)
	if err != nil {
		return engineerr.IO(err, "creating %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return engineerr.IO(err, "writing %s", path)
	}
	for i, arg := range w.inputs {
		for _, rw := range gathered[i] {
			rec := []string{arg.Name, arg.Layout.String(), strconv.Itoa(rw.gid), strconv.FormatFloat(rw.value, 'g', -1, 64)}
			if err := cw.Write(rec); err != nil {
				return engineerr.IO(err, "writing %s", path)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return engineerr.IO(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return engineerr.IO(err, "closing %s", path)
	}
	return nil
}
