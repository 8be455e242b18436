// Package observability wires OpenTelemetry tracing and metrics for the
// REST client and the streaming driver.
//
// Setup:
//
//	id := observability.Identity{Service: "tweetstream", Version: version.Version}
//	shutdown, err := observability.Init(ctx, cfg, id)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest)
//	defer span.End()
//
// Metrics:
//
//	sm, err := observability.NewStreamMetrics(observability.Meter("tweetstream"))
//	sm.RecordRecords(ctx, endpoint, 3)
//
// A nil *StreamMetrics or *RequestMetrics is valid and records nothing.
package observability
