package engine

import (
	"context"

	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/field"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/shared"
)

// resolve maps a shared data name to its argument name. Names without an
// alias are taken as argument names.
func (e *Engine) resolve(name string) string {
	if arg, ok := e.aliases[name]; ok {
		return arg
	}
	return name
}

// checkLayout rejects a buffer whose layout differs from the registered one.
// An unregistered name is left for the accessor to report.
func (e *Engine) checkLayout(arg string, l layout.Layout) error {
	if have := e.data.Layout(arg); have != layout.Undefined && have != l {
		return &engineerr.LayoutMismatchError{Name: arg, Actual: have, Requested: l}
	}
	return nil
}

// ImportData writes buf into the registry. Scalars are resized to the
// buffer; fields must match their local length. A node field is then
// reconciled: ghosts take their owner's value and every entry is split
// among the ranks holding it. Importing a node field is collective.
func (e *Engine) ImportData(ctx context.Context, name string, buf *shared.Buffer) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	arg := e.resolve(name)
	if err := e.checkLayout(arg, buf.Layout); err != nil {
		return err
	}

	switch buf.Layout {
	case layout.Scalar:
		if err := e.data.SetValue(arg, buf.Values); err != nil {
			return err
		}
	case layout.NodeField:
		v, err := e.data.NodeField(arg)
		if err != nil {
			return err
		}
		if len(buf.Values) != v.MyLength() {
			return &engineerr.SizeMismatchError{Argument: arg, Expected: v.MyLength(), Got: len(buf.Values)}
		}
		copy(v.ExtractView(), buf.Values)
		v.Import()
		v.DisAssemble()
	case layout.ElementField:
		col, err := e.data.ElementField(arg)
		if err != nil {
			return err
		}
		if len(buf.Values) != len(col) {
			return &engineerr.SizeMismatchError{Argument: arg, Expected: len(col), Got: len(buf.Values)}
		}
		copy(col, buf.Values)
	default:
		return engineerr.Configf("cannot import %q with layout %s", name, buf.Layout)
	}

	e.logger.Debug("Imported data.", "name", name, "argument", arg, "layout", buf.Layout, "size", len(buf.Values))
	return nil
}

// ExportData copies an argument out of the registry into buf. A node field
// is first compressed so every rank's contributions reach the owner, and
// the exported view is consistent across ranks. Exporting a node field is
// collective.
//
// Unless buf.Dynamic is set, buf.Values keeps its length. A scalar holding
// exactly one value is replicated to that length.
func (e *Engine) ExportData(ctx context.Context, name string, buf *shared.Buffer) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	arg := e.resolve(name)
	if err := e.checkLayout(arg, buf.Layout); err != nil {
		return err
	}

	switch buf.Layout {
	case layout.Scalar:
		stored, err := e.data.Value(arg)
		if err != nil {
			return err
		}
		if err := exportScalar(arg, stored, buf); err != nil {
			return err
		}
	case layout.NodeField:
		v, err := e.data.NodeField(arg)
		if err != nil {
			return err
		}
		if err := exportNodeField(arg, v, buf); err != nil {
			return err
		}
	case layout.ElementField:
		col, err := e.data.ElementField(arg)
		if err != nil {
			return err
		}
		if err := exportSlice(arg, col, buf); err != nil {
			return err
		}
	default:
		return engineerr.Configf("cannot export %q with layout %s", name, buf.Layout)
	}

	e.logger.Debug("Exported data.", "name", name, "argument", arg, "layout", buf.Layout, "size", len(buf.Values))
	return nil
}

func exportScalar(arg string, stored []float64, buf *shared.Buffer) error {
	switch {
	case buf.Dynamic:
		buf.Values = append(buf.Values[:0:0], stored...)
	case len(stored) == len(buf.Values):
		copy(buf.Values, stored)
	case len(stored) == 1:
		for i := range buf.Values {
			buf.Values[i] = stored[0]
		}
	default:
		return &engineerr.SharedValueLengthMismatchError{Argument: arg, Stored: len(stored), Expected: len(buf.Values)}
	}
	return nil
}

// exportNodeField checks the size before the collective so a failing rank
// leaves its field untouched. The compress leaves
// the field consistent; it is split again afterwards so the registry stays
// in the form operations expect.
func exportNodeField(arg string, v *field.Vector, buf *shared.Buffer) error {
	if !buf.Dynamic && len(buf.Values) != v.MyLength() {
		return &engineerr.SizeMismatchError{Argument: arg, Expected: v.MyLength(), Got: len(buf.Values)}
	}
	v.LocalExport()
	err := exportSlice(arg, v.ExtractView(), buf)
	v.DisAssemble()
	return err
}

func exportSlice(arg string, src []float64, buf *shared.Buffer) error {
	if buf.Dynamic {
		buf.Values = append(buf.Values[:0:0], src...)
		return nil
	}
	if len(buf.Values) != len(src) {
		return &engineerr.SizeMismatchError{Argument: arg, Expected: len(src), Got: len(buf.Values)}
	}
	copy(buf.Values, src)
	return nil
}

// ExportDataMap returns the global IDs this rank owns for a field layout.
// For node fields they label the leading entries of an exported field.
func (e *Engine) ExportDataMap(l layout.Layout) ([]int, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	switch l {
	case layout.NodeField:
		return append([]int(nil), e.mesh.OwnedNodes...), nil
	case layout.ElementField:
		return e.mesh.ElementIDs(), nil
	default:
		return nil, engineerr.Configf("no data map for layout %s", l)
	}
}
