package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		latency time.Duration
		want    LatencyBucket
	}{
		{5 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{75 * time.Millisecond, BucketP100},
		{499 * time.Millisecond, BucketP500},
		{2 * time.Second, BucketP1000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.latency), tt.latency.String())
	}
}

func TestCircularBuffer_EvictsOldest(t *testing.T) {
	// Given: a buffer of three
	b := NewCircularBuffer[int](3)

	// When: five items are added
	for i := 1; i <= 5; i++ {
		b.Add(i)
	}

	// Then: the last three remain, oldest first
	assert.Equal(t, []int{3, 4, 5}, b.Items())
}

func TestCircularBuffer_PartiallyFilled(t *testing.T) {
	b := NewCircularBuffer[string](4)
	b.Add("a")
	b.Add("b")

	assert.Equal(t, []string{"a", "b"}, b.Items())
	assert.Empty(t, NewCircularBuffer[string](0).Items())
}

func TestExtractTerms(t *testing.T) {
	assert.Equal(t, []string{"the", "quick", "fox"}, ExtractTerms("The  QUICK fox is"))
	assert.Nil(t, ExtractTerms("   "))
}

func TestQueryMetrics_Record(t *testing.T) {
	// Given: a fresh collector
	m := NewQueryMetrics(DefaultConfig())

	// When: recording a mix of events
	m.Record(QueryEvent{Operation: OpBasic, Query: "flea", Results: 2, Latency: time.Millisecond})
	m.Record(QueryEvent{Operation: OpBasic, Query: "Flea ", Results: 2, Latency: time.Millisecond})
	m.Record(QueryEvent{Operation: OpSearch, Query: "unicorn sonnet", Results: 0,
		FailedNamespaces: []string{"PLAY"}, Latency: 200 * time.Millisecond})
	m.Record(QueryEvent{Operation: OpExists, Query: "The Flea Donne", Results: 1})

	// Then: the snapshot reflects every dimension
	s := m.Snapshot()
	assert.Equal(t, int64(4), s.TotalQueries)
	assert.Equal(t, int64(2), s.Operations[OpBasic])
	assert.Equal(t, int64(1), s.Operations[OpSearch])
	assert.Equal(t, int64(1), s.NamespaceFailures["PLAY"])
	assert.Equal(t, int64(3), s.LatencyDistribution[BucketP10])
	assert.Equal(t, int64(1), s.LatencyDistribution[BucketP500])
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, []string{"unicorn sonnet"}, s.ZeroResultQueries)
	assert.Equal(t, int64(1), s.ExactRepeatCount, "case and spacing are normalized")
	assert.InDelta(t, 25.0, s.ZeroResultPercentage(), 0.001)

	require.NotEmpty(t, s.TopTerms)
	assert.Equal(t, TermCount{Term: "flea", Count: 3}, s.TopTerms[0])
}

func TestQueryMetrics_RepeatsAreScopedByOperation(t *testing.T) {
	m := NewQueryMetrics(Config{})

	m.Record(QueryEvent{Operation: OpBasic, Query: "donne", Results: 1})
	m.Record(QueryEvent{Operation: OpAuthors, Query: "donne", Results: 1})

	assert.Equal(t, int64(0), m.Snapshot().ExactRepeatCount)
}

func TestQueryMetrics_SnapshotIsACopy(t *testing.T) {
	m := NewQueryMetrics(DefaultConfig())
	m.Record(QueryEvent{Operation: OpBasic, Query: "flea", Results: 1})

	s := m.Snapshot()
	s.Operations[OpBasic] = 99

	assert.Equal(t, int64(1), m.Snapshot().Operations[OpBasic])
}

func TestQueryMetrics_ConcurrentRecord(t *testing.T) {
	m := NewQueryMetrics(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(QueryEvent{Operation: OpBasic, Query: "rose", Results: 1})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.Snapshot().TotalQueries)
}

func TestSnapshot_EmptyPercentage(t *testing.T) {
	assert.Equal(t, 0.0, NewQueryMetrics(DefaultConfig()).Snapshot().ZeroResultPercentage())
}
