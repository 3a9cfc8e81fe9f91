package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"authgate/pkg/platform/audit"
)

const tracerName = "authgate/internal/auth"

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, attributes ...any) {
	if s.audit != nil {
		s.audit.Log(ctx, action, attributes...)
	}
}

func (s *Service) observeProvider(operation string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveProvider(operation, time.Since(started))
	}
}

func (s *Service) incrementLogin(method, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLogin(method, outcome)
	}
}

func (s *Service) incrementResetRequest(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementResetRequest(outcome)
	}
}

func (s *Service) incrementPasswordReset(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementPasswordReset(outcome)
	}
}

func (s *Service) incrementUsersCreated() {
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
}
