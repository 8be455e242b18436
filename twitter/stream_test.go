package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/tweetkit/httpclient"
	"github.com/kbukum/tweetkit/observability"
	"github.com/kbukum/tweetkit/stream"
)

// chunkedServer writes each chunk in its own flush.
func chunkedServer(t *testing.T, status int, chunks ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SearchStreamPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(chunk))
			flusher.Flush()
			time.Sleep(20 * time.Millisecond)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type collector struct {
	mu     sync.Mutex
	tweets []Tweet
	errs   []StreamError
}

func (c *collector) handler() stream.Handler[Tweet, StreamError] {
	return stream.Handler[Tweet, StreamError]{
		OnRecord: func(t Tweet) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.tweets = append(c.tweets, t)
			return nil
		},
		OnError: func(e StreamError) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.errs = append(c.errs, e)
			return nil
		},
	}
}

func (c *collector) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.tweets))
	for _, t := range c.tweets {
		if t.Data != nil {
			ids = append(ids, t.Data.ID)
		}
	}
	return ids
}

func waitStream(t *testing.T, s *Stream) error {
	t.Helper()
	select {
	case <-s.Done():
		return s.Err()
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end")
		return nil
	}
}

func streamSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

func TestStream_RecordsAcrossChunks(t *testing.T) {
	server := chunkedServer(t, http.StatusOK,
		`{"data":{"id":"1","text":"first"},"matching_rules":[{"id":"r1","tag":"go"}]}`+"\r\n"+`{"data":{"id":`,
		`"2","text":"sec`,
		`ond"}}`+"\r\n",
		"\r\n",
		`{"data":{"id":"3","text":"third"}}`+"\r\n",
	)

	c := newTestClient(t, server.URL, nil)
	var col collector
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, col.handler())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if s.ID() == "" {
		t.Error("expected a connection id")
	}
	if s.Status() != http.StatusOK {
		t.Errorf("Status() = %d", s.Status())
	}

	if err := waitStream(t, s); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	ids := col.ids()
	want := []string{"1", "2", "3"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
	if rules := col.tweets[0].MatchingRules; len(rules) != 1 || rules[0].Tag != "go" {
		t.Errorf("MatchingRules = %+v", rules)
	}
	if text := col.tweets[1].Data.Text; text != "second" {
		t.Errorf("Text = %q", text)
	}
}

func TestStream_ErrorStatus(t *testing.T) {
	server := chunkedServer(t, http.StatusTooManyRequests,
		`{"title":"ConnectionException","detail":"This stream is currently at the maximum allowed connection limit.","connection_issue":"TooManyConnections","type":"https://api.twitter.com/2/problems/streaming-connection"}`+"\r\n",
	)

	c := newTestClient(t, server.URL, nil)
	var col collector
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, col.handler())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if s.Status() != http.StatusTooManyRequests {
		t.Errorf("Status() = %d", s.Status())
	}
	if err := waitStream(t, s); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if len(col.tweets) != 0 {
		t.Errorf("unexpected tweets: %+v", col.tweets)
	}
	if len(col.errs) != 1 {
		t.Fatalf("errs = %+v", col.errs)
	}
	if col.errs[0].ConnectionIssue != "TooManyConnections" {
		t.Errorf("ConnectionIssue = %q", col.errs[0].ConnectionIssue)
	}
}

func TestStream_NonErrorStatusDeliversRecords(t *testing.T) {
	server := chunkedServer(t, http.StatusMultipleChoices, `{"data":{"id":"1"}}`+"\r\n")

	c := newTestClient(t, server.URL, nil)
	var col collector
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, col.handler())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if err := waitStream(t, s); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if ids := col.ids(); len(ids) != 1 || ids[0] != "1" {
		t.Errorf("ids = %v", ids)
	}
	if len(col.errs) != 0 {
		t.Errorf("unexpected errs: %+v", col.errs)
	}
}

func TestStream_SkipsBadRecordsAndPanics(t *testing.T) {
	server := chunkedServer(t, http.StatusOK,
		"not json\r\n",
		`{"data":{"id":"1"}}`+"\r\n",
		`{"data":{"id":"2"}}`+"\r\n",
	)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	c := newTestClient(t, server.URL, nil, WithStreamMetrics(metrics))
	var got []string
	h := stream.Handler[Tweet, StreamError]{
		OnRecord: func(tw Tweet) error {
			if tw.Data.ID == "1" {
				panic("boom")
			}
			got = append(got, tw.Data.ID)
			return nil
		},
	}
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, h)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if err := waitStream(t, s); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if len(got) != 1 || got[0] != "2" {
		t.Errorf("got = %v, want [2]", got)
	}

	sums := streamSums(t, reader)
	if sums["stream.records"] != 3 {
		t.Errorf("stream.records = %d, want 3", sums["stream.records"])
	}
	if sums["stream.decode_errors"] != 1 {
		t.Errorf("stream.decode_errors = %d, want 1", sums["stream.decode_errors"])
	}
	if sums["stream.handler_errors"] != 1 {
		t.Errorf("stream.handler_errors = %d, want 1", sums["stream.handler_errors"])
	}
	if sums["stream.bytes"] == 0 {
		t.Error("expected stream.bytes to be recorded")
	}
	if sums["stream.connections.active"] != 0 {
		t.Errorf("stream.connections.active = %d, want 0", sums["stream.connections.active"])
	}
}

func TestStream_Heartbeats(t *testing.T) {
	server := chunkedServer(t, http.StatusOK, "\r\n", "\r\n", `{"data":{"id":"1"}}`+"\r\n")

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	c := newTestClient(t, server.URL, nil, WithStreamMetrics(metrics))
	var col collector
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, col.handler())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if err := waitStream(t, s); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if ids := col.ids(); len(ids) != 1 {
		t.Errorf("ids = %v", ids)
	}
	sums := streamSums(t, reader)
	if sums["stream.heartbeats"] != 2 {
		t.Errorf("stream.heartbeats = %d, want 2", sums["stream.heartbeats"])
	}
	if sums["stream.records"] != 1 {
		t.Errorf("stream.records = %d, want 1", sums["stream.records"])
	}
}

// hangingServer sends one record, then holds the connection open.
func hangingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"1"}}` + "\r\n"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)
	return server
}

func TestStream_ReadTimeout(t *testing.T) {
	server := hangingServer(t)

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Stream.ReadTimeout = 100 * time.Millisecond
	})
	var col collector
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, col.handler())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	err = waitStream(t, s)
	if !httpclient.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if ids := col.ids(); len(ids) != 1 {
		t.Errorf("ids = %v", ids)
	}
}

func TestStream_SlowHandlerDoesNotTripIdleTimeout(t *testing.T) {
	server := chunkedServer(t, http.StatusOK,
		`{"data":{"id":"1"}}`+"\r\n",
		`{"data":{"id":"2"}}`+"\r\n",
	)

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Stream.ReadTimeout = 100 * time.Millisecond
	})
	var col collector
	h := col.handler()
	record := h.OnRecord
	h.OnRecord = func(tw Tweet) error {
		time.Sleep(300 * time.Millisecond)
		return record(tw)
	}
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, h)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if err := waitStream(t, s); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if ids := col.ids(); !slices.Equal(ids, []string{"1", "2"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestStream_Close(t *testing.T) {
	server := hangingServer(t)

	c := newTestClient(t, server.URL, nil)
	received := make(chan struct{}, 1)
	h := stream.Handler[Tweet, StreamError]{
		OnRecord: func(Tweet) error {
			received <- struct{}{}
			return nil
		},
	}
	s, err := c.Stream(context.Background(), SearchStreamPath, nil, h)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("no record received")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestStream_ContextCancel(t *testing.T) {
	server := hangingServer(t)

	c := newTestClient(t, server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	var col collector
	s, err := c.Stream(ctx, SearchStreamPath, nil, col.handler())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	cancel()

	if err := waitStream(t, s); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestStream_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url, nil)
	_, err := c.Stream(context.Background(), SearchStreamPath, nil, stream.Handler[Tweet, StreamError]{})
	if !httpclient.IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestStream_QueryParams(t *testing.T) {
	query := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query <- r.URL.Query().Get("tweet.fields")
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	s, err := c.Stream(context.Background(), SampleStreamPath,
		map[string]string{"tweet.fields": "created_at,lang"}, stream.Handler[Tweet, StreamError]{})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if got := <-query; got != "created_at,lang" {
		t.Errorf("tweet.fields = %q", got)
	}
	if err := waitStream(t, s); err != nil {
		t.Errorf("Err() = %v", err)
	}
}
