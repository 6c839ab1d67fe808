// Package diag carries the diagnostics produced while compiling a schema.
//
// A Diagnostic has a position, a severity, a stable Code and a message.
// Diagnostics are collected in a List; any error-severity entry aborts code
// generation. Strict builds promote warnings with List.Promote.
//
// Diagnostics are reported through a Sink. WriterSink prints the
// conventional one-line form
//
//	cab.rs:12:5: error: unknown type FuCabFoo [unknown-type]
//
// SlogSink forwards them to an slog.Logger, and MultiSink fans out to
// several sinks at once:
//
//	sink := diag.NewMultiSink(
//	    diag.NewWriterSink(os.Stderr),
//	    diag.NewSlogSink(slog.Default()),
//	)
package diag
