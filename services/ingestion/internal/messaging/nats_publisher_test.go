package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	domainerrors "skilltrends/common/errors"
	"skilltrends/services/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	subject    string
	data       []byte
	publishErr error
	flushes    int
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.subject, c.data = subject, data
	return nil
}

func (c *fakeConn) Flush() error {
	c.flushes++
	return nil
}

func TestPublishBatch(t *testing.T) {
	conn := &fakeConn{}
	p := newPublisher(zap.NewNop(), conn)

	batch := &models.Batch{
		Query:     "data analyst",
		ScrapedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Postings:  []models.JobPosting{{ID: "a", Title: "Analyst", Skills: []string{"sql"}}},
	}
	require.NoError(t, p.PublishBatch(context.Background(), batch))

	assert.Equal(t, ScrapedBatchSubject, conn.subject)
	assert.Equal(t, 1, conn.flushes)

	var got models.Batch
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, *batch, got)
}

func TestPublishBatchError(t *testing.T) {
	conn := &fakeConn{publishErr: errors.New("connection closed")}
	p := newPublisher(zap.NewNop(), conn)

	err := p.PublishBatch(context.Background(), &models.Batch{})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTypeInternal))
	assert.Zero(t, conn.flushes)
}
