// Package codegen emits Go source for a resolved schema.
//
// Each struct becomes a fixed-size byte array wrapper whose accessors read
// and write the wire bytes in place, so a parsed value always round-trips
// exactly. Each enum becomes a named unsigned integer type with its
// variants as constants. The operations emitted per type follow a
// traits.Plan: public operations are exported, private ones are emitted
// unexported because other generated code calls them.
//
// The generated file imports only the wire package of this module. Output
// is formatted with goimports and starts with a header recording the
// schema name and the blake3 digest of its text.
package codegen
