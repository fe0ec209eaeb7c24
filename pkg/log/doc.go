// Package log captures protocol events of a gateway connection.
//
// Capture is separate from operational logging (slog). Every frame the
// client sends or receives, every session state change, every keep-alive
// ping and every error can be recorded as an Event for later analysis.
//
//	// Console, during development
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Capture file, readable with silog
//	fl, _ := log.NewFileLogger("gateway.slog")
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(nil), fl)
//
// Capture files are a plain sequence of CBOR-encoded events.
package log
