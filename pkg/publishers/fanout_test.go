package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		nil,
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})
	if fanout.Size() != 2 {
		t.Fatalf("expected nil publisher dropped, size %d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestFanoutPublishAllCounts(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	bad := &stubPublisher{id: "bad", typ: "sqs", err: errors.New("throttled")}
	fanout := NewFanout([]Publisher{ok, bad})

	stats, err := fanout.PublishAll(context.Background(), []Event{sampleEvent(), sampleEvent(), sampleEvent()})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if stats.Events != 3 || stats.Delivered != 3 || stats.Failed != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if ok.calls != 3 || bad.calls != 3 {
		t.Fatalf("expected every publisher called per event, got %d/%d", ok.calls, bad.calls)
	}
}

func TestFanoutPublishAllStopsOnCanceledContext(t *testing.T) {
	pub := &stubPublisher{id: "ok", typ: "http"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := NewFanout([]Publisher{pub}).PublishAll(ctx, []Event{sampleEvent()})
	if !errors.Is(err, context.Canceled) || stats.Events != 0 || pub.calls != 0 {
		t.Fatalf("expected early stop, got %+v err=%v", stats, err)
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	pub := &stubPublisher{id: "ok", typ: "gcp_pubsub"}
	if err := NewFanout([]Publisher{pub}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("unexpected publishers %#v", pubs)
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), NewRegistry(nil), []PublisherConfig{{ID: "x", Type: "kafka"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
