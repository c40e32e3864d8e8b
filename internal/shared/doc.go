// Package shared holds the name-indexed registry of typed data arguments
// that operations read from and write to, and the buffer type used to move
// data across the host boundary.
//
// A name lives in exactly one of three stores: scalars (small replicated
// vectors), node fields (distributed vectors with ghosts) and element
// fields (columns of a per-element data container). Accessors never
// allocate, except SetValue which resizes a scalar to the imported length.
package shared
