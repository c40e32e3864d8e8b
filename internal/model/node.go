// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Node, the generic block tree an operation is built
// from, and its construction from native HCL syntax.
package model

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/opgrid/internal/hclutil"
	"github.com/zclconf/go-cty/cty"
)

// Node is one HCL block with its attributes evaluated.
type Node struct {
	Type          string
	Labels        []string
	Attributes    map[string]cty.Value
	Children      []*Node
	Range         hcl.Range
	FSInformation *FSInfo
}

// NewNode creates an empty node. It is mostly useful in tests.
func NewNode(typ string, labels ...string) *Node {
	return &Node{
		Type:       typ,
		Labels:     labels,
		Attributes: make(map[string]cty.Value),
	}
}

// newNodeFromSyntax evaluates every attribute of block and recurses into
// its children. Attribute expressions may only use literals.
func newNodeFromSyntax(block *hclsyntax.Block, fs *FSInfo) (*Node, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	n := NewNode(block.Type, block.Labels...)
	n.Range = block.DefRange()
	n.FSInformation = fs

	for name, attr := range block.Body.Attributes {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		n.Attributes[name] = val
	}

	for _, child := range block.Body.Blocks {
		c, childDiags := newNodeFromSyntax(child, fs)
		diags = append(diags, childDiags...)
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}

	return n, diags
}

// Set stores an attribute value and returns the node for chaining.
func (n *Node) Set(name string, val cty.Value) *Node {
	n.Attributes[name] = val
	return n
}

// Add appends child blocks and returns the node for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Label returns the i-th label, or "" when absent.
func (n *Node) Label(i int) string {
	if i < 0 || i >= len(n.Labels) {
		return ""
	}
	return n.Labels[i]
}

// Function is the factory name of an operation block.
func (n *Node) Function() string { return n.Label(0) }

// Name is the dispatch name of an operation block.
func (n *Node) Name() string { return n.Label(1) }

// Where describes the node's position for error messages.
func (n *Node) Where() string {
	if n.Range.Filename != "" {
		return n.Range.String()
	}
	if n.FSInformation != nil {
		return n.FSInformation.FilePath
	}
	return "<memory>"
}

// Blocks returns the children of the given type in source order.
func (n *Node) Blocks(typ string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// Block returns the only child of the given type, or nil when absent.
func (n *Node) Block(typ string) (*Node, error) {
	blocks := n.Blocks(typ)
	switch len(blocks) {
	case 0:
		return nil, nil
	case 1:
		return blocks[0], nil
	default:
		return nil, n.Errorf("only one %q block is allowed, found %d", typ, len(blocks))
	}
}

// AttributeNames returns the sorted attribute names.
func (n *Node) AttributeNames() []string {
	names := make([]string, 0, len(n.Attributes))
	for name := range n.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Allow reports attributes and child blocks not in the allowed sets.
func (n *Node) Allow(attributes, blocks []string) error {
	var diags hcl.Diagnostics
	attrSet := toSet(attributes)
	for _, name := range n.AttributeNames() {
		if _, ok := attrSet[name]; !ok {
			diags = append(diags, hclutil.ErrorDiag(n.rangePtr(), "Unsupported argument",
				fmt.Sprintf("An argument named %q is not expected in %s. Expected one of %v.", name, n.describe(), attributes)))
		}
	}
	blockSet := toSet(blocks)
	for _, c := range n.Children {
		if _, ok := blockSet[c.Type]; !ok {
			diags = append(diags, hclutil.ErrorDiag(n.rangePtr(), "Unsupported block type",
				fmt.Sprintf("Blocks of type %q are not expected in %s. Expected one of %v.", c.Type, n.describe(), blocks)))
		}
	}
	return hclutil.ConfigError(diags, "%s", n.describe())
}

func (n *Node) rangePtr() *hcl.Range {
	if n.Range.Filename == "" {
		return nil
	}
	r := n.Range
	return &r
}

func (n *Node) describe() string {
	if len(n.Labels) == 0 {
		return fmt.Sprintf("%s block at %s", n.Type, n.Where())
	}
	return fmt.Sprintf("%s %q at %s", n.Type, n.Labels, n.Where())
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
