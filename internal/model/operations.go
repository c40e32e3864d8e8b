// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file loads the operations file: a flat list of
// `operation "<Function>" "<Name>" { ... }` blocks. The first label picks
// the factory that builds the operation, the second is the name it is
// dispatched by.
package model

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/fsutil"
	"github.com/specialistvlad/opgrid/internal/hclutil"
)

const operationBlock = "operation"

// LoadOperations parses every .hcl file under the given paths. A path may
// be a file or a directory, which is searched recursively. Operation names
// must be unique across all files.
func LoadOperations(ctx context.Context, paths ...string) ([]*Node, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading operation definitions.", "paths", paths)

	parser := hclparse.NewParser()
	var all []*Node
	for _, p := range paths {
		files, err := hclFiles(p)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			hclFile, diags := parser.ParseHCLFile(file)
			if err := hclutil.ConfigError(diags, "failed to parse HCL file %s", file); err != nil {
				return nil, err
			}
			nodes, err := operationsFromFile(hclFile, file)
			if err != nil {
				return nil, err
			}
			all = append(all, nodes...)
		}
	}

	if err := checkUniqueNames(all); err != nil {
		return nil, err
	}
	logger.Debug("Operation definitions loaded.", "count", len(all))
	return all, nil
}

// ParseOperations parses operation blocks from source held in memory.
func ParseOperations(filename string, src []byte) ([]*Node, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if err := hclutil.ConfigError(diags, "failed to parse HCL source %s", filename); err != nil {
		return nil, err
	}
	nodes, err := operationsFromFile(hclFile, filename)
	if err != nil {
		return nil, err
	}
	return nodes, checkUniqueNames(nodes)
}

func operationsFromFile(hclFile *hcl.File, filename string) ([]*Node, error) {
	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return nil, engineerr.Configf("%s: operations must be written in native HCL syntax", filename)
	}

	var diags hcl.Diagnostics
	for name, attr := range body.Attributes {
		diags = append(diags, hclutil.ErrorDiag(attr.SrcRange.Ptr(), "Unexpected attribute",
			fmt.Sprintf("Attribute %q is not allowed at the top level of an operations file.", name)))
	}

	fs := NewFSInfo(filename)
	var nodes []*Node
	for _, block := range body.Blocks {
		defRange := block.DefRange()
		if block.Type != operationBlock {
			diags = append(diags, hclutil.ErrorDiag(&defRange, "Unexpected block",
				fmt.Sprintf("Only %q blocks are allowed in an operations file, found %q.", operationBlock, block.Type)))
			continue
		}
		if len(block.Labels) != 2 {
			diags = append(diags, hclutil.ErrorDiag(&defRange, "Invalid operation block",
				"An operation block needs two labels: the function and the operation name."))
			continue
		}
		n, nodeDiags := newNodeFromSyntax(block, fs)
		diags = append(diags, nodeDiags...)
		if !nodeDiags.HasErrors() {
			nodes = append(nodes, n)
		}
	}

	if err := hclutil.ConfigError(diags, "invalid operations file %s", filename); err != nil {
		return nil, err
	}
	return nodes, nil
}

func checkUniqueNames(nodes []*Node) error {
	seen := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if prev, ok := seen[n.Name()]; ok {
			return engineerr.Configf("operation %q defined twice: %s and %s", n.Name(), prev.Where(), n.Where())
		}
		seen[n.Name()] = n
	}
	return nil
}

// hclFiles expands a path into the .hcl files it names.
func hclFiles(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, engineerr.IO(err, "cannot access %s", p)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	files, err := fsutil.FindFilesByExtension(p, ".hcl")
	if err != nil {
		return nil, engineerr.IO(err, "cannot walk %s", p)
	}
	return files, nil
}
