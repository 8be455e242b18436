package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StreamMetrics holds the instruments recorded by the streaming driver.
type StreamMetrics struct {
	records       metric.Int64Counter
	heartbeats    metric.Int64Counter
	decodeErrors  metric.Int64Counter
	handlerErrors metric.Int64Counter
	bytesRead     metric.Int64Counter
	active        metric.Int64UpDownCounter
}

// NewStreamMetrics creates stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	records, err := meter.Int64Counter("stream.records",
		metric.WithDescription("Records completed by the stream framer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.records counter: %w", err)
	}

	heartbeats, err := meter.Int64Counter("stream.heartbeats",
		metric.WithDescription("Reads that carried only keep-alive whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.heartbeats counter: %w", err)
	}

	decodeErrors, err := meter.Int64Counter("stream.decode_errors",
		metric.WithDescription("Records that failed to decode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.decode_errors counter: %w", err)
	}

	handlerErrors, err := meter.Int64Counter("stream.handler_errors",
		metric.WithDescription("Record callbacks that returned an error or panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.handler_errors counter: %w", err)
	}

	bytesRead, err := meter.Int64Counter("stream.bytes",
		metric.WithDescription("Bytes read from stream bodies"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.bytes counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("stream.connections.active",
		metric.WithDescription("Currently open stream connections"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.connections.active gauge: %w", err)
	}

	return &StreamMetrics{
		records:       records,
		heartbeats:    heartbeats,
		decodeErrors:  decodeErrors,
		handlerErrors: handlerErrors,
		bytesRead:     bytesRead,
		active:        active,
	}, nil
}

func endpointAttr(endpoint string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrEndpoint, endpoint))
}

// RecordBytes adds n bytes read from endpoint.
func (m *StreamMetrics) RecordBytes(ctx context.Context, endpoint string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesRead.Add(ctx, int64(n), endpointAttr(endpoint))
}

// RecordRecords adds n completed records.
func (m *StreamMetrics) RecordRecords(ctx context.Context, endpoint string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.records.Add(ctx, int64(n), endpointAttr(endpoint))
}

// RecordHeartbeats adds n keep-alive lines.
func (m *StreamMetrics) RecordHeartbeats(ctx context.Context, endpoint string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.heartbeats.Add(ctx, int64(n), endpointAttr(endpoint))
}

// RecordDecodeError counts a record that could not be decoded.
func (m *StreamMetrics) RecordDecodeError(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.decodeErrors.Add(ctx, 1, endpointAttr(endpoint))
}

// RecordHandlerError counts a failed record callback.
func (m *StreamMetrics) RecordHandlerError(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.handlerErrors.Add(ctx, 1, endpointAttr(endpoint))
}

// ConnectionOpened increments the active connection gauge.
func (m *StreamMetrics) ConnectionOpened(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.active.Add(ctx, 1, endpointAttr(endpoint))
}

// ConnectionClosed decrements the active connection gauge.
func (m *StreamMetrics) ConnectionClosed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.active.Add(ctx, -1, endpointAttr(endpoint))
}

// RequestMetrics holds the instruments recorded per HTTP request.
type RequestMetrics struct {
	total          metric.Int64Counter
	duration       metric.Float64Histogram
	rateLimitWaits metric.Int64Counter
}

// NewRequestMetrics creates request instruments on the given meter.
func NewRequestMetrics(meter metric.Meter) (*RequestMetrics, error) {
	total, err := meter.Int64Counter("http.client.requests",
		metric.WithDescription("Total number of outbound requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram("http.client.duration",
		metric.WithDescription("Duration of outbound requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.duration histogram: %w", err)
	}

	rateLimitWaits, err := meter.Int64Counter("http.client.rate_limit_waits",
		metric.WithDescription("Times a request waited out a rate limit before retrying"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.rate_limit_waits counter: %w", err)
	}

	return &RequestMetrics{
		total:          total,
		duration:       duration,
		rateLimitWaits: rateLimitWaits,
	}, nil
}

// RecordRequest records a completed request. status is 0 when no response
// was received.
func (m *RequestMetrics) RecordRequest(ctx context.Context, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.total.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPStatus, statusLabel(status)),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
	))
}

// RecordRateLimitWait counts a rate-limit back-off.
func (m *RequestMetrics) RecordRateLimitWait(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.rateLimitWaits.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrHTTPMethod, method)))
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
