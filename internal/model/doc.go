// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of the opgrid HCL
// configuration. It turns the two user-facing files into in-memory
// structures that the engine can consume without knowing about HCL.
//
// # Core Concepts
//
//   - Interface: The job description. It names the mesh decomposition, the
//     shared data the host exchanges with the engine, and the stages that
//     sequence operations when the engine runs standalone.
//
//   - Node: One operation definition from the operations file. A Node is a
//     generic block tree (type, labels, evaluated attributes, child blocks)
//     because every operation owns its own schema. Operations read their
//     settings through the typed accessors on Node.
//
//   - FSInfo: Metadata linking every definition back to its source file, so
//     errors can point at the offending file and relative paths can be
//     resolved next to the file that declared them.
//
// Why a generic Node instead of one struct per operation?
//
// The set of operations is open: a module registers a factory under a
// function name and decides what its block looks like. The model therefore
// only guarantees the outer shape (`operation "<Function>" "<Name>" { ... }`)
// and leaves the body to the factory. Attribute values are evaluated once at
// load time; there are no references between operations, so no evaluation
// context is needed.
package model
