package channel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingCapacityRoundsUp(t *testing.T) {
	assert.Equal(t, 1, NewRing[int](0).Cap())
	assert.Equal(t, 16, NewRing[int](16).Cap())
	assert.Equal(t, 32, NewRing[int](17).Cap())
}

func TestRingFIFOExactlyOnce(t *testing.T) {
	r := NewRing[int](8)
	for i := 0; i < 8; i++ {
		require.True(t, r.TryPush(i))
	}
	assert.False(t, r.TryPush(8), "push into full ring must fail")

	var got []int
	n := r.Drain(func(v int) { got = append(got, v) })
	assert.Equal(t, 8, n)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, got)

	assert.Equal(t, 0, r.Drain(func(int) { t.Fatal("drained twice") }))
}

func TestRingWrapsAround(t *testing.T) {
	r := NewRing[int](4)
	next := 0
	var got []int
	for round := 0; round < 10; round++ {
		for r.TryPush(next) {
			next++
		}
		v, ok := r.TryPop()
		require.True(t, ok)
		got = append(got, v)
	}
	r.Drain(func(v int) { got = append(got, v) })

	require.Len(t, got, next)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestRingConcurrentProducerConsumer(t *testing.T) {
	const total = 100000
	r := NewRing[int](64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if r.TryPush(i) {
				i++
			}
		}
	}()

	expected := 0
	for expected < total {
		r.Drain(func(v int) {
			if v != expected {
				t.Errorf("out of order: got %d, want %d", v, expected)
			}
			expected++
		})
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
