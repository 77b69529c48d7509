package dwarf

import (
	"context"
	"log/slog"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// DiagnosticKind classifies a non-fatal condition recorded while parsing.
// It mirrors the error kinds of spec.md §7 but also covers conditions that
// never became a Go error (e.g. a skipped CU version).
type DiagnosticKind int

const (
	DiagMalformedLength DiagnosticKind = iota
	DiagUnknownForm
	DiagUnknownOpcode
	DiagTruncatedSection
	DiagUnresolvedReference
	DiagUnsupportedExpression
	DiagUnsupportedVersion
	DiagCancelled
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagMalformedLength:
		return "malformed_length"
	case DiagUnknownForm:
		return "unknown_form"
	case DiagUnknownOpcode:
		return "unknown_opcode"
	case DiagTruncatedSection:
		return "truncated_section"
	case DiagUnresolvedReference:
		return "unresolved_reference"
	case DiagUnsupportedExpression:
		return "unsupported_expression"
	case DiagUnsupportedVersion:
		return "unsupported_version"
	case DiagCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Diagnostic is one recorded, non-fatal event. CUOffset is the owning
// compilation unit's start offset in .debug_info; DIEOffset is -1 when the
// event is not attributable to a single DIE (e.g. a CU-level header
// failure).
type Diagnostic struct {
	Kind      DiagnosticKind
	CUOffset  uint64
	DIEOffset int64
	Message   string
}

// DiagnosticSink collects diagnostics for later inspection (tests, the
// façade's "corrupt CU, skip and continue" policy) and, at the same time,
// fans them out to one or more slog.Handler sinks — e.g. a human-readable
// text handler for interactive CLI use and a JSON handler for batch runs —
// via github.com/samber/slog-multi so neither caller has to choose only one.
type DiagnosticSink struct {
	mu      sync.Mutex
	records []Diagnostic
	logger  *slog.Logger
}

// NewDiagnosticSink builds a sink that logs to every given handler. With no
// handlers, diagnostics are still collected but nothing is logged.
func NewDiagnosticSink(handlers ...slog.Handler) *DiagnosticSink {
	var logger *slog.Logger
	switch len(handlers) {
	case 0:
		logger = slog.New(slog.NewTextHandler(nopWriter{}, nil))
	case 1:
		logger = slog.New(handlers[0])
	default:
		logger = slog.New(slogmulti.Fanout(handlers...))
	}
	return &DiagnosticSink{logger: logger}
}

// Record appends a diagnostic and logs it at a level matching severity:
// cancellation, truncation and malformed lengths are warnings, everything
// else recoverable is informational.
func (s *DiagnosticSink) Record(d Diagnostic) {
	s.mu.Lock()
	s.records = append(s.records, d)
	s.mu.Unlock()

	level := slog.LevelInfo
	if d.Kind == DiagTruncatedSection || d.Kind == DiagCancelled || d.Kind == DiagMalformedLength {
		level = slog.LevelWarn
	}

	s.logger.Log(context.Background(), level, d.Message,
		slog.String("kind", d.Kind.String()),
		slog.Uint64("cu_offset", d.CUOffset),
		slog.Int64("die_offset", d.DIEOffset),
	)
}

// All returns every diagnostic recorded so far, in recording order.
func (s *DiagnosticSink) All() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.records))
	copy(out, s.records)
	return out
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
