package fedir

// Package fedir is a typed intermediate representation for federated
// computations: expression trees whose values, functions and intrinsic
// operators are annotated with placements (a coordinating server, a pool of
// clients) and type-checked eagerly at construction time.
//
// Layout:
//
//   - The root package holds the error model shared by every layer (Issue + codes).
//   - types/ is the structural type system (equality, assignability, canonical strings).
//   - placements/ and intrinsics/ are the append-only process registries.
//   - blocks/ is the building-block IR: one constructor per node kind, each
//     enforcing its typing rule and computing the node's type exactly once.
//   - codec/ round-trips trees through the versioned exchange format.
//   - factory/ assembles common multi-node patterns on top of blocks.
//   - transform/ holds pure tree-rewrite passes.
//
// Design policy:
// - Trees and types are immutable after construction and safe to share across
//   goroutines; rewrites produce new trees with structural sharing.
// - Registries are append-only and must finish their bootstrap phase before
//   concurrent reads begin.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	ref, err := blocks.NewReference("x", types.Scalar(types.Int32))
//	call, err := factory.IntrinsicCall(intrinsics.FederatedSum, arg)
//	wire, err := codec.Encode(call)
//	tree, err := codec.Decode(wire)
