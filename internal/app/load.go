package app

import (
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/model"
)

// load reads the interface, the operations and the mesh description.
func (a *App) load() error {
	iface, err := model.LoadInterface(a.ctx, a.config.InterfacePath)
	if err != nil {
		return err
	}
	a.iface = iface

	ops, err := model.LoadOperations(a.ctx, a.config.AppPath)
	if err != nil {
		return err
	}
	a.operations = ops
	a.logger.Info("Configuration loaded.",
		"operations", len(ops),
		"shared_data", len(iface.SharedData),
		"stages", len(iface.Stages),
	)

	a.meshes, err = a.loadMesh()
	return err
}

// loadMesh builds the decomposition of every rank before any rank starts,
// so a bad part of the mesh file fails the job instead of leaving the
// healthy ranks waiting for the broken one.
func (a *App) loadMesh() ([]*mesh.Decomposition, error) {
	path := a.config.MeshPath
	if path == "" {
		path = a.iface.MeshPath()
	}
	if path != "" {
		a.logger.Debug("Loading mesh decomposition.", "path", path)
		f, err := mesh.Load(path)
		if err != nil {
			return nil, engineerr.IO(err, "mesh %s", path)
		}
		if len(f.Ranks) != a.config.Ranks {
			return nil, engineerr.Configf("mesh %s declares %d ranks but %d were requested", path, len(f.Ranks), a.config.Ranks)
		}
		meshes := make([]*mesh.Decomposition, a.config.Ranks)
		for r := range meshes {
			if meshes[r], err = f.ForRank(r, a.config.Ranks); err != nil {
				return nil, engineerr.Configf("mesh %s: %v", path, err)
			}
		}
		return meshes, nil
	}

	if a.config.Ranks > 1 {
		return nil, engineerr.Configf("running %d ranks needs a mesh decomposition file", a.config.Ranks)
	}
	var nodes, elements int
	if m := a.iface.Mesh; m != nil {
		nodes, elements = m.Nodes, m.Elements
	}
	a.logger.Debug("Using a serial mesh.", "nodes", nodes, "elements", elements)
	return []*mesh.Decomposition{mesh.Serial(nodes, elements)}, nil
}
