// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file provides the typed attribute accessors operations use to read
// their settings. Values are converted with cty's conversion rules, so a
// quoted number is accepted where a number is expected.
package model

import (
	"fmt"

	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/hclutil"
)

// Errorf returns a configuration error located at the node.
func (n *Node) Errorf(format string, args ...any) error {
	return engineerr.Configf("%s: %s", n.describe(), fmt.Sprintf(format, args...))
}

// Invalidf returns a validation error located at the node.
func (n *Node) Invalidf(format string, args ...any) error {
	return engineerr.Validationf("%s: %s", n.describe(), fmt.Sprintf(format, args...))
}

// Has reports whether the attribute was set.
func (n *Node) Has(name string) bool {
	_, ok := n.Attributes[name]
	return ok
}

// Decode converts the named attribute into target. It fails when the
// attribute is absent.
func (n *Node) Decode(name string, target any) error {
	val, ok := n.Attributes[name]
	if !ok {
		return n.Errorf("missing required attribute %q", name)
	}
	if err := hclutil.DecodeValue(val, target); err != nil {
		return n.Errorf("attribute %q: %v", name, err)
	}
	return nil
}

func optional[T any](n *Node, name string, def T) (T, error) {
	if !n.Has(name) {
		return def, nil
	}
	var v T
	if err := n.Decode(name, &v); err != nil {
		return def, err
	}
	return v, nil
}

func required[T any](n *Node, name string) (T, error) {
	var v T
	err := n.Decode(name, &v)
	return v, err
}

// StringOr returns the attribute as a string, or def when absent.
func (n *Node) StringOr(name, def string) (string, error) { return optional(n, name, def) }

// RequiredString returns the attribute as a string and fails when absent.
func (n *Node) RequiredString(name string) (string, error) { return required[string](n, name) }

// FloatOr returns the attribute as a float, or def when absent.
func (n *Node) FloatOr(name string, def float64) (float64, error) { return optional(n, name, def) }

// RequiredFloat returns the attribute as a float and fails when absent.
func (n *Node) RequiredFloat(name string) (float64, error) { return required[float64](n, name) }

// IntOr returns the attribute as an int, or def when absent.
func (n *Node) IntOr(name string, def int) (int, error) { return optional(n, name, def) }

// BoolOr returns the attribute as a bool, or def when absent.
func (n *Node) BoolOr(name string, def bool) (bool, error) { return optional(n, name, def) }

// FloatList returns a list attribute, or nil when absent.
func (n *Node) FloatList(name string) ([]float64, error) { return optional[[]float64](n, name, nil) }

// IntList returns a list attribute, or nil when absent.
func (n *Node) IntList(name string) ([]int, error) { return optional[[]int](n, name, nil) }

// StringList returns a list attribute, or nil when absent.
func (n *Node) StringList(name string) ([]string, error) { return optional[[]string](n, name, nil) }
