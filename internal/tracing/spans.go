package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// Span names.
const (
	SpanCheckRun     = "regcheck.check"
	SpanLoadRegistry = "regcheck.load_registry"
	SpanLoadAdapters = "regcheck.load_adapters"
)

// Span attribute keys.
const (
	AttrRegistryPath   = "registry.path"
	AttrProtocolCount  = "registry.protocols"
	AttrModuleCount    = "adapter.modules"
	AttrChecks         = "check.count"
	AttrViolationsHard = "violations.hard"
	AttrViolationsSoft = "violations.soft"
	AttrRunID          = "run.id"
)

// RecordReport attaches violation counts to span and marks it as an error
// when the report fails the gate.
func RecordReport(span trace.Span, report *violation.Report, gate violation.Severity) {
	if report == nil {
		return
	}
	span.SetAttributes(
		attribute.Int(AttrChecks, len(report.Checks)),
		attribute.Int(AttrViolationsHard, report.Hard()),
		attribute.Int(AttrViolationsSoft, report.Soft()),
	)
	if report.Failed(gate) {
		span.SetStatus(codes.Error, "registry has violations")
		return
	}
	span.SetStatus(codes.Ok, "")
}
