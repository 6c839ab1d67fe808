// Package config loads fu-structgen project files.
//
// A project file lists the schemas to compile and the options shared by
// their generated files:
//
//	package: fustructs
//	strict: true
//	header: "SPDX-License-Identifier: LGPL-2.1-or-later"
//	schemas:
//	  - input: fu-dfu.rs
//	  - input: fu-cab.rs
//	    output: cab/cab_gen.go
//	    package: cab
//
// Paths are relative to the project file. A schema without an output is
// written next to its input with a _gen.go suffix.
package config
