package extractkit

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countInferrer reads num_people from the document text.
var countInferrer = InferFunc(func(ctx context.Context, req Request) (map[string]any, error) {
	if req.Text == "fail" {
		return nil, errors.New("backend error")
	}
	return map[string]any{"leave_time": "noon", "num_people": req.Text}, nil
})

func TestExtractBatch(t *testing.T) {
	x := New(countInferrer, WithConcurrency(2))
	texts := []string{"1", "0", "fail", "4", "seven"}

	items, err := x.ExtractBatch(context.Background(), texts, numPeopleSchema(t))
	require.NoError(t, err)
	require.Len(t, items, len(texts))

	for i, it := range items {
		assert.Equal(t, i, it.Index)
	}

	require.NoError(t, items[0].Err)
	assert.Equal(t, 1, items[0].Result.Int("num_people"))

	var ve *ValidationError
	require.ErrorAs(t, items[1].Err, &ve)
	assert.Equal(t, "positive", ve.Rule)

	assert.EqualError(t, items[2].Err, "backend error")
	assert.Nil(t, items[2].Result)

	require.NoError(t, items[3].Err)
	assert.Equal(t, 4, items[3].Result.Int("num_people"))

	require.ErrorAs(t, items[4].Err, &ve)
	assert.Equal(t, "type", ve.Rule)
}

func TestExtractBatch_CustomRunner(t *testing.T) {
	x := New(countInferrer)
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = strconv.Itoa(i + 1)
	}

	items, err := x.ExtractBatch(context.Background(), texts, numPeopleSchema(t),
		WithRunner(NewLimitedRunner(context.Background(), 3)))
	require.NoError(t, err)
	for i, it := range items {
		require.NoError(t, it.Err)
		assert.Equal(t, i+1, it.Result.Int("num_people"))
	}
}

func TestExtractBatch_InputErrors(t *testing.T) {
	x := New(countInferrer)

	_, err := x.ExtractBatch(context.Background(), nil, numPeopleSchema(t))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = x.ExtractBatch(context.Background(), []string{"1"}, nil)
	assert.ErrorIs(t, err, ErrMissingSchema)
}

func TestExtractBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := New(countInferrer).ExtractBatch(ctx, []string{"1", "2"}, numPeopleSchema(t))
	assert.ErrorIs(t, err, context.Canceled)
	for _, it := range items {
		assert.ErrorIs(t, it.Err, context.Canceled)
	}
}
