// Package field implements the distributed node-field vector the registry
// stores for NodeField arguments.
//
// Each rank holds a local view made of its owned nodes followed by ghost
// copies of nodes owned elsewhere. Between boundary calls a vector is kept
// in additive form: the global value of a node is the sum of the entries
// every rank holds for it. That is the form element-wise operations produce
// naturally when they scatter element contributions onto nodes.
//
// The reconcile steps move between that form and the consistent form in
// which every copy equals the global value:
//
//   - Import copies each owner's value onto the ghosts that mirror it.
//   - DisAssemble divides every entry by the number of ranks holding the
//     node, turning a consistent vector into an additive one.
//   - LocalExport sums all copies into the owner and then imports, turning
//     an additive vector into a consistent one.
//
// On a single rank every multiplicity is one and all three are identities.
// All reconcile methods are collective over the Map's communicator.
package field
