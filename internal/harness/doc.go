// Package harness runs YAML scenarios against the dataflow graph and records
// a deterministic trace of every step and every notification. Traces are
// compared against golden files in tests and printed by dataflowctl.
//
// A scenario names its contexts and connections up front, then lists
// steps:
//
//	name: merge-first-match
//	description: lookups fall through members in order
//	contexts: [m1, m2]
//	connections: [g]
//	steps:
//	  - {op: publish, target: m2, type: int, value: 5}
//	  - {op: connect, target: g, member: m1}
//	  - {op: connect, target: g, member: m2}
//	  - {op: get, target: g, type: int, expect: "5"}
//
// Value types are a closed set: string, int, float, bool and scoped. A
// scoped value is identified by its label and carries its own scope, which
// the terminate step ends.
package harness
