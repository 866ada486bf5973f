package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeTagIDs(t *testing.T) {
	assert.Nil(t, dedupeTagIDs(nil))
	assert.Equal(t, []int64{3, 1, 2}, dedupeTagIDs([]int64{3, 1, 3, 2, 1}))
}

func TestTagDelta(t *testing.T) {
	tests := []struct {
		name       string
		current    []int64
		desired    []int64
		wantAdd    []int64
		wantRemove []int64
	}{
		{
			name:    "matching sets produce an empty delta",
			current: []int64{1, 2},
			desired: []int64{1, 2},
		},
		{
			name:    "attach to empty set",
			desired: []int64{1, 2},
			wantAdd: []int64{1, 2},
		},
		{
			name:       "clear everything",
			current:    []int64{1, 2},
			wantRemove: []int64{1, 2},
		},
		{
			name:       "partial overlap",
			current:    []int64{1, 2, 3},
			desired:    []int64{2, 4},
			wantAdd:    []int64{4},
			wantRemove: []int64{1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := tagDelta(tt.current, tt.desired)
			assert.Equal(t, tt.wantAdd, delta.Add)
			assert.Equal(t, tt.wantRemove, delta.Remove)
		})
	}
}

func TestTagDelta_Idempotent(t *testing.T) {
	current := []int64{1, 2}
	desired := []int64{2, 3}

	first := tagDelta(current, desired)
	assert.Equal(t, []int64{3}, first.Add)
	assert.Equal(t, []int64{1}, first.Remove)

	// After applying the first delta the current set equals desired;
	// reconciling again must change nothing.
	second := tagDelta(desired, desired)
	assert.True(t, second.Empty())
}
