// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file loads the interface file, which describes a job: the mesh
// decomposition, the shared data exchanged with the host, and the stages
// that sequence operations when no host drives the engine.
package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/hclutil"
	"github.com/specialistvlad/opgrid/internal/layout"
)

// Interface is the parsed interface file.
type Interface struct {
	Mesh          *Mesh
	SharedData    []*SharedData
	Stages        []*Stage
	FSInformation *FSInfo
}

// Mesh names a decomposition file or asks for a serial mesh of the given
// size. Path wins when both are set.
type Mesh struct {
	Path     string `hcl:"path,optional"`
	Nodes    int    `hcl:"nodes,optional"`
	Elements int    `hcl:"elements,optional"`
}

// SharedData is one name the host can import into or export from.
type SharedData struct {
	Name         string   `hcl:"name,label"`
	Argument     string   `hcl:"argument,optional"`
	LayoutName   string   `hcl:"layout"`
	Size         int      `hcl:"size,optional"`
	InitialValue *float64 `hcl:"initial_value,optional"`

	Layout layout.Layout
}

// Stage is an ordered list of operation names run Repeat times.
type Stage struct {
	Name       string   `hcl:"name,label"`
	Operations []string `hcl:"operations"`
	Repeat     int      `hcl:"repeat,optional"`
}

var interfaceSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "mesh"},
		{Type: "shared_data", LabelNames: []string{"name"}},
		{Type: "stage", LabelNames: []string{"name"}},
	},
}

// LoadInterface parses the interface file at path.
func LoadInterface(ctx context.Context, path string) (*Interface, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading interface definition.", "path", path)

	hclFile, diags := hclparse.NewParser().ParseHCLFile(path)
	if err := hclutil.ConfigError(diags, "failed to parse HCL file %s", path); err != nil {
		return nil, err
	}
	iface, err := decodeInterface(hclFile, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Interface definition loaded.",
		"shared_data", len(iface.SharedData),
		"stages", len(iface.Stages),
	)
	return iface, nil
}

// ParseInterface parses an interface definition held in memory.
func ParseInterface(filename string, src []byte) (*Interface, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if err := hclutil.ConfigError(diags, "failed to parse HCL source %s", filename); err != nil {
		return nil, err
	}
	return decodeInterface(hclFile, filename)
}

func decodeInterface(hclFile *hcl.File, filename string) (*Interface, error) {
	var allDiags hcl.Diagnostics

	content, diags := hclFile.Body.Content(interfaceSchema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, hclutil.ConfigError(allDiags, "invalid interface file %s", filename)
	}

	iface := &Interface{FSInformation: NewFSInfo(filename)}

	meshBlock, diags := hclutil.FindUniqueBlock(content.Blocks, "mesh")
	allDiags = append(allDiags, diags...)
	if meshBlock != nil {
		var m Mesh
		allDiags = append(allDiags, gohcl.DecodeBody(meshBlock.Body, nil, &m)...)
		iface.Mesh = &m
	}

	sharedSeen := make(map[string]struct{})
	stageSeen := make(map[string]struct{})
	for _, block := range content.Blocks {
		switch block.Type {
		case "shared_data":
			sd := &SharedData{Name: block.Labels[0]}
			allDiags = append(allDiags, gohcl.DecodeBody(block.Body, nil, sd)...)
			allDiags = append(allDiags, sd.normalize(block)...)
			if _, dup := sharedSeen[sd.Name]; dup {
				allDiags = append(allDiags, hclutil.ErrorDiag(&block.DefRange, "Duplicate shared_data block",
					fmt.Sprintf("Shared data %q is already defined.", sd.Name)))
			}
			sharedSeen[sd.Name] = struct{}{}
			iface.SharedData = append(iface.SharedData, sd)
		case "stage":
			st := &Stage{Name: block.Labels[0]}
			allDiags = append(allDiags, gohcl.DecodeBody(block.Body, nil, st)...)
			if st.Repeat == 0 {
				st.Repeat = 1
			}
			if st.Repeat < 0 {
				allDiags = append(allDiags, hclutil.ErrorDiag(&block.DefRange, "Invalid repeat",
					fmt.Sprintf("Stage %q has repeat = %d; it must be positive.", st.Name, st.Repeat)))
			}
			if _, dup := stageSeen[st.Name]; dup {
				allDiags = append(allDiags, hclutil.ErrorDiag(&block.DefRange, "Duplicate stage block",
					fmt.Sprintf("Stage %q is already defined.", st.Name)))
			}
			stageSeen[st.Name] = struct{}{}
			iface.Stages = append(iface.Stages, st)
		}
	}

	if err := hclutil.ConfigError(allDiags, "invalid interface file %s", filename); err != nil {
		return nil, err
	}
	return iface, nil
}

func (sd *SharedData) normalize(block *hcl.Block) hcl.Diagnostics {
	if sd.Argument == "" {
		sd.Argument = sd.Name
	}
	l, err := layout.Parse(sd.LayoutName)
	if err != nil {
		return hcl.Diagnostics{hclutil.ErrorDiag(&block.DefRange, "Invalid layout", err.Error())}
	}
	sd.Layout = l
	if sd.Size < 0 {
		return hcl.Diagnostics{hclutil.ErrorDiag(&block.DefRange, "Invalid size",
			fmt.Sprintf("Shared data %q has size %d; it must not be negative.", sd.Name, sd.Size))}
	}
	return nil
}

// MeshPath resolves the mesh file relative to the interface file, or
// returns "" when the interface asks for a serial mesh.
func (i *Interface) MeshPath() string {
	if i.Mesh == nil || i.Mesh.Path == "" {
		return ""
	}
	return i.FSInformation.Resolve(i.Mesh.Path)
}

// Stage returns the stage with the given name.
func (i *Interface) Stage(name string) (*Stage, error) {
	for _, st := range i.Stages {
		if st.Name == name {
			return st, nil
		}
	}
	return nil, engineerr.Configf("stage %q not found", name)
}

// SharedByName returns the shared data entry with the given name, or nil.
func (i *Interface) SharedByName(name string) *SharedData {
	for _, sd := range i.SharedData {
		if sd.Name == name {
			return sd
		}
	}
	return nil
}
