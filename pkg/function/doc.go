// Package function defines the custom function model shared by the
// validator, store, compiler and sandbox executor.
//
// A custom function is a small JavaScript function body with declared,
// typed parameters and a declared return type. Agents register functions,
// which are statically vetted before they are persisted, compiled lazily
// into reusable programs, and executed in a fresh sandbox per call.
//
// Architecture:
//   - validate: static analysis of definitions and runtime argument checks
//   - store: durable CRUD, versioning, backup and restore
//   - compiler: fingerprint-keyed cache of compiled programs
//   - sandbox: isolated execution with a capability namespace and time budget
//   - service: the public operations, returning structured responses
//
// Data flows one way:
//
//	Definition -> validated Definition -> compiled Artifact -> Result
package function
