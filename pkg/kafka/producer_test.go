package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w)
	p.now = func() time.Time { return time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC) }

	err := p.Publish(context.Background(), "fgreport.published", []byte("2024-05-31"), map[string]int{"rows": 3})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "fgreport.published", w.msgs[0].Topic)
	assert.Equal(t, []byte("2024-05-31"), w.msgs[0].Key)
	assert.JSONEq(t, `{"rows":3}`, string(w.msgs[0].Value))
	assert.Equal(t, p.now(), w.msgs[0].Time)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducerPublishRawBytes(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w)

	require.NoError(t, p.Publish(context.Background(), "t", nil, "plain"))
	assert.Equal(t, "plain", string(w.msgs[0].Value))
}

func TestProducerPublishError(t *testing.T) {
	boom := errors.New("leader not available")
	p := newProducer(&recordingWriter{err: boom})

	err := p.Publish(context.Background(), "t", nil, []byte("x"))
	assert.ErrorIs(t, err, boom)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}
