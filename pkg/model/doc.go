// Package model resolves a parsed schema into a checked, laid-out model.
//
// Build resolves type references (forward references are allowed), assigns
// every field a byte offset and width, packs bitfield runs into container
// integers, resolves $struct_size and $struct_offset, and checks constants,
// defaults and enum discriminants against their declared widths. Problems
// are returned as a diag.List; the Schema is only usable when the list has
// no errors.
//
// All structures are packed. Field offsets follow declaration order with no
// padding, and a struct's size is the sum of its field widths.
//
// MarshalIR and MarshalIRYAML export the resolved layout for tooling.
package model
