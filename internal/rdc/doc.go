// Package rdc estimates a molecular alignment (Saupe order) tensor from
// residual dipolar couplings and reports its derived descriptors.
//
// Pipeline:
//
//	observations -> direction matrix -> SVD solve (with resampling)
//	  -> validated order matrix -> alignment tensor
//	  -> {invariants, Euler angles, fit quality}
//
// Responsibilities: design-matrix construction, the constrained
// least-squares solve, eigen-decomposition with the |λ|-ascending
// principal-axis convention, ZYZ Euler extraction and Q-factor evaluation.
//
// Dependency rule: this package is a pure numerical engine. It does not
// resolve atom names, read measurement files or persist results; callers
// supply vectors, couplings and max RDC values. Diagnostics are emitted
// through an optional Observer rather than logged.
package rdc
