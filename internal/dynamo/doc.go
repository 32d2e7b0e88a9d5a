// Package dynamo provides [ParallelFor], a fork-join helper used by
// the tree, solver, gravity, and force packages to split per-particle
// work across a fixed worker pool.
//
// # Example
//
//	dynamo.ParallelFor(len(items), 64, func(start, end int) {
//		for i := start; i < end; i++ {
//			process(items[i])
//		}
//	})
package dynamo
