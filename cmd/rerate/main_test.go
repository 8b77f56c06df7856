package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listerFunc func(ctx context.Context) ([]int64, error)

func (f listerFunc) ListProductIDs(ctx context.Context) ([]int64, error) { return f(ctx) }

func TestProductIDs(t *testing.T) {
	all := listerFunc(func(context.Context) ([]int64, error) { return []int64{1, 2, 3}, nil })

	ids, err := productIDs(context.Background(), all, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = productIDs(context.Background(), all, []string{"7", "9"})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, ids)

	_, err = productIDs(context.Background(), all, []string{"7", "x"})
	assert.Error(t, err)
	_, err = productIDs(context.Background(), all, []string{"0"})
	assert.Error(t, err)
}

func TestRerateAll_CountsFailures(t *testing.T) {
	var calls atomic.Int64
	res := rerateAll(context.Background(), []int64{1, 2, 3, 4}, 2, func(_ context.Context, id int64) (decimal.Decimal, error) {
		calls.Add(1)
		if id%2 == 0 {
			return decimal.Zero, errors.New("deadlock")
		}
		return decimal.NewFromInt(4), nil
	})

	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, result{failed: 2}, res)
}

func TestRerateAll_CancelledBeforeStartSkipsEverything(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := rerateAll(ctx, []int64{1, 2, 3}, 2, func(context.Context, int64) (decimal.Decimal, error) {
		t.Fatal("no product should be rerated after cancellation")
		return decimal.Zero, nil
	})

	assert.Equal(t, result{skipped: 3}, res)
}

func TestRerateAll_InterruptMidRunReportsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var done []int64
	res := rerateAll(ctx, []int64{1, 2, 3}, 1, func(_ context.Context, id int64) (decimal.Decimal, error) {
		done = append(done, id)
		cancel() // signal arrives while the first product is in flight
		return decimal.NewFromInt(5), nil
	})

	assert.Equal(t, []int64{1}, done)
	assert.Equal(t, int64(0), res.failed)
	assert.Equal(t, 2, res.skipped, "an interrupted run must not look successful")
}
