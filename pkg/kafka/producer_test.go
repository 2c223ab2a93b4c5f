package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "gzip", "test")

	payload := map[string]int{"samples": 2560}
	if err := p.Publish(context.Background(), "eeg.ingested", []byte("id-1"), payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "eeg.ingested" || string(m.Key) != "id-1" {
		t.Fatalf("unexpected message %+v", m)
	}
	var got map[string]int
	if err := json.Unmarshal(m.Value, &got); err != nil || got["samples"] != 2560 {
		t.Fatalf("value = %s (%v)", m.Value, err)
	}
	if len(m.Headers) != 2 || string(m.Headers[1].Value) != "test" {
		t.Fatalf("headers = %+v", m.Headers)
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("no brokers")
	p := NewProducerWithWriter(&recordingWriter{err: boom}, "gzip", "test")
	if err := p.Publish(context.Background(), "t", nil, "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}
