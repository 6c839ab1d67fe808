// Package schema reads fwupd struct schema files.
//
// A schema file is a sequence of attribute-prefixed declarations written in
// a Rust-like syntax:
//
//	#[derive(New, ValidateStream, ParseStream)]
//	#[repr(C, packed)]
//	struct FuStructCabHeader {
//	    signature: [char; 4] == "MSCF",
//	    reserved1: [u8; 4],
//	    size: u32le,
//	}
//
//	#[derive(ToString)]
//	#[repr(u16le)]
//	enum FuCabCompression {
//	    None = 0x0000,
//	    Mszip,
//	}
//
// Parse produces a File holding the declarations in source order. It checks
// syntax only; names are resolved and layouts solved by package model.
package schema
