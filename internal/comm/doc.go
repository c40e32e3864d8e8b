// Package comm defines the collective communication contract the engine
// relies on to reconcile distributed field data between ranks.
//
// All calls are blocking and collective: every rank of a communicator must
// make the same sequence of calls, or the job hangs. There is no timeout or
// cancellation at this layer; a mismatched participation pattern is a caller
// bug.
//
// Two implementations are provided. Self is the trivial single-rank
// communicator. NewWorld creates a group of in-process ranks that rendezvous
// through shared memory, which lets a single binary (and the tests) exercise
// the multi-rank reconcile paths exactly as a cluster job would.
package comm
