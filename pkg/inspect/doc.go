// Package inspect decodes and edits structures described by a schema at run
// time, without generated code.
//
// The codec follows the contract of generated code exactly: the same
// bounds checks, the same constant and discriminant validation, the same
// defaults in New, and the same pretty-printed form. This makes it both the
// engine of the interactive "fu-structgen inspect" shell and a reference
// to test generated code against.
//
// Field values are addressed with paths:
//
//	signature
//	bits.lower
//	entries[1].id
//	words[2]
//
// Get returns native Go values: uint64 for unsigned fields and bitfields,
// int64 for signed fields, string for character arrays, []byte for byte
// arrays, wire.Guid, EnumValue for enum fields, and *Record for nested
// structs.
package inspect
