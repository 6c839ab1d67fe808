// Package traits decides which operations are generated for each type.
//
// A derive names an operation the schema author wants in the public API.
// Operations depend on each other: Parse needs the internal parse helper,
// which needs the internal validator, which in turn needs the validators of
// every nested struct. Build expands the derive lists of a resolved schema
// into an export level per operation:
//
//   - ExportNone: the operation is not generated.
//   - ExportPrivate: the operation is needed by generated code but is not
//     part of the public API.
//   - ExportPublic: the operation is part of the public API.
//
// A level only ever rises. Accessors of constant fields are never public.
//
// The plan also knows the Go signature of every public function, so the
// emitter and "fu-structgen verify --plan" agree on the generated API.
package traits
