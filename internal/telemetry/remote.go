package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/openstax-kanban/issue-importer/internal/importer"
	"github.com/openstax-kanban/issue-importer/internal/types"
)

const remoteScopeName = "github.com/openstax-kanban/issue-importer/remote"

// InstrumentedRemote wraps an importer.Remote with a span per call and the
// imp.remote.* metrics. Use WrapRemote to create one.
type InstrumentedRemote struct {
	inner  importer.Remote
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

var _ importer.Remote = (*InstrumentedRemote)(nil)

// WrapRemote returns r decorated with OTel instrumentation, or r itself when
// telemetry is disabled.
func WrapRemote(r importer.Remote) importer.Remote {
	if !Enabled() {
		return r
	}
	return newInstrumentedRemote(r, otel.Tracer(remoteScopeName), otel.Meter(remoteScopeName))
}

func newInstrumentedRemote(r importer.Remote, tracer trace.Tracer, m metric.Meter) *InstrumentedRemote {
	ops, _ := m.Int64Counter("imp.remote.operations",
		metric.WithDescription("Total remote API operations executed"),
	)
	dur, _ := m.Float64Histogram("imp.remote.operation.duration",
		metric.WithDescription("Remote API operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("imp.remote.errors",
		metric.WithDescription("Total remote API errors by kind"),
	)
	return &InstrumentedRemote{inner: r, tracer: tracer, ops: ops, dur: dur, errs: errs}
}

func (r *InstrumentedRemote) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("imp.operation", name)}, attrs...)
	ctx, span := r.tracer.Start(ctx, "remote."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	r.ops.Add(ctx, 1, metric.WithAttributes(all[0]))
	return ctx, span, time.Now()
}

func (r *InstrumentedRemote) done(ctx context.Context, span trace.Span, start time.Time, name string, err error) {
	opAttr := attribute.String("imp.operation", name)
	r.dur.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(opAttr))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.errs.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("imp.error.code", types.ErrorCode(err))))
	}
	span.End()
}

func (r *InstrumentedRemote) ResolveRepository(ctx context.Context, owner, name string) (*types.Repository, error) {
	ctx, span, t := r.op(ctx, "ResolveRepository", attribute.String("imp.repository", owner+"/"+name))
	v, err := r.inner.ResolveRepository(ctx, owner, name)
	r.done(ctx, span, t, "ResolveRepository", err)
	return v, err
}

func (r *InstrumentedRemote) ResolveOrganization(ctx context.Context, name string) (*types.Organization, error) {
	ctx, span, t := r.op(ctx, "ResolveOrganization", attribute.String("imp.organization", name))
	v, err := r.inner.ResolveOrganization(ctx, name)
	r.done(ctx, span, t, "ResolveOrganization", err)
	return v, err
}

func (r *InstrumentedRemote) ImportIssue(ctx context.Context, repo *types.Repository, issue types.IssueRecord) error {
	ctx, span, t := r.op(ctx, "ImportIssue",
		attribute.String("imp.repository", repo.String()),
		attribute.String("imp.issue.title", issue.Title),
	)
	err := r.inner.ImportIssue(ctx, repo, issue)
	r.done(ctx, span, t, "ImportIssue", err)
	return err
}

func (r *InstrumentedRemote) CreateLabel(ctx context.Context, repo *types.Repository, label types.LabelRecord) error {
	ctx, span, t := r.op(ctx, "CreateLabel",
		attribute.String("imp.repository", repo.String()),
		attribute.String("imp.label.name", label.Name),
	)
	err := r.inner.CreateLabel(ctx, repo, label)
	r.done(ctx, span, t, "CreateLabel", err)
	return err
}

func (r *InstrumentedRemote) ListMembers(ctx context.Context, org *types.Organization) ([]string, error) {
	ctx, span, t := r.op(ctx, "ListMembers", attribute.String("imp.organization", org.String()))
	v, err := r.inner.ListMembers(ctx, org)
	span.SetAttributes(attribute.Int("imp.member.count", len(v)))
	r.done(ctx, span, t, "ListMembers", err)
	return v, err
}

func (r *InstrumentedRemote) AddOrUpdateMembership(ctx context.Context, org *types.Organization, login string) error {
	ctx, span, t := r.op(ctx, "AddOrUpdateMembership",
		attribute.String("imp.organization", org.String()),
		attribute.String("imp.member.login", login),
	)
	err := r.inner.AddOrUpdateMembership(ctx, org, login)
	r.done(ctx, span, t, "AddOrUpdateMembership", err)
	return err
}
