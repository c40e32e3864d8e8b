// Package registry provides the central "glue" for the module system.
//
// The Registry maps the function names used in operations files (e.g.,
// "Aggregator") to the compiled Go factories that build those operations.
// Modules populate it at startup through their Register method.
//
// Before any engine is built, the registry is validated against the loaded
// configuration so that a missing factory or a stage naming an undefined
// operation is reported once, with every problem listed, instead of
// surfacing later on one rank.
package registry
