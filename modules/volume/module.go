// Package volume computes the material volume of a density field and its
// gradient.
package volume

import (
	"context"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the ComputeVolume factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("ComputeVolume", New)
}

// ComputeVolume integrates the nodal density over the mesh. Each element
// contributes its measure times the mean density of its nodes.
type ComputeVolume struct {
	host     op.Host
	topology string
	volume   string
	gradient string
}

// New builds a ComputeVolume operation. All three argument names are
// optional.
func New(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"topology", "volume", "gradient"}, nil); err != nil {
		return nil, err
	}
	if !host.Mesh().HasConnectivity() {
		return nil, node.Errorf("mesh elements carry no node connectivity")
	}
	c := &ComputeVolume{host: host}
	var err error
	if c.topology, err = node.StringOr("topology", "Topology"); err != nil {
		return nil, err
	}
	if c.volume, err = node.StringOr("volume", "Volume"); err != nil {
		return nil, err
	}
	if c.gradient, err = node.StringOr("gradient", "Volume Gradient"); err != nil {
		return nil, err
	}
	return c, nil
}

// Arguments declares the density, the volume and its gradient.
func (c *ComputeVolume) Arguments() []layout.Argument {
	return []layout.Argument{
		layout.NewArgument(layout.NodeField, c.topology, 0),
		layout.NewArgument(layout.Scalar, c.volume, 1),
		layout.NewArgument(layout.NodeField, c.gradient, 0),
	}
}

// Execute recomputes the volume and its gradient.
func (c *ComputeVolume) Execute(ctx context.Context) error {
	r := c.host.Registry()
	d := c.host.Mesh()

	rho, err := r.NodeField(c.topology)
	if err != nil {
		return err
	}
	grad, err := r.NodeFieldData(c.gradient)
	if err != nil {
		return err
	}
	if _, err := r.Value(c.volume); err != nil {
		return err
	}
	density := rho.Consistent()

	var local float64
	dvdrho := make([]float64, len(grad))
	for _, el := range d.Elements {
		share := el.Measure / float64(len(el.Nodes))
		for _, gid := range el.Nodes {
			// mesh.New guarantees element nodes are local.
			i, _ := d.LocalIndex(gid)
			local += share * density[i]
			dvdrho[i] += share
		}
	}

	total, err := c.host.Comm().AllReduce(comm.Sum, []float64{local})
	if err != nil {
		return err
	}
	copy(grad, dvdrho)
	if err := r.SetValue(c.volume, total); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Computed volume.", "volume", total[0])
	return nil
}
