// Package hclutil holds small helpers shared by the HCL configuration
// loaders: diagnostic construction, conversion of diagnostics into
// classified errors, and decoding of cty values into Go values.
package hclutil
