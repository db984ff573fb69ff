package service

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name   string
		header string
		total  int64
		want   ByteRange
	}{
		{name: "open end clamped to last byte", header: "bytes=0-", total: 500_000, want: ByteRange{Start: 0, End: 499_999, Total: 500_000}},
		{name: "open end capped at chunk", header: "bytes=1000000-", total: 2_500_000, want: ByteRange{Start: 1_000_000, End: 1_999_999, Total: 2_500_000}},
		{name: "explicit end", header: "bytes=100-199", total: 1000, want: ByteRange{Start: 100, End: 199, Total: 1000}},
		{name: "explicit end beyond size", header: "bytes=100-99999999", total: 1000, want: ByteRange{Start: 100, End: 999, Total: 1000}},
		{name: "last byte", header: "bytes=999-", total: 1000, want: ByteRange{Start: 999, End: 999, Total: 1000}},
		{name: "whitespace and unit case", header: " Bytes= 10 - 20 ", total: 1000, want: ByteRange{Start: 10, End: 20, Total: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRange(tt.header, tt.total, DefaultChunkSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRangeErrors(t *testing.T) {
	_, err := ResolveRange("", 1000, DefaultChunkSize)
	assert.ErrorIs(t, err, ErrRangeRequired)
	_, err = ResolveRange("   ", 1000, DefaultChunkSize)
	assert.ErrorIs(t, err, ErrRangeRequired)

	for _, header := range []string{
		"bytes=abc-",
		"bytes=1000-",
		"bytes=5000-6000",
		"bytes=-500",
		"bytes=0-1,5-6",
		"items=0-",
		"bytes=50-10",
		"bytes=10-x",
		"bytes=",
		"bytes",
		"bytes=-1-",
	} {
		_, err := ResolveRange(header, 1000, DefaultChunkSize)
		assert.ErrorIs(t, err, ErrRangeNotSatisfiable, header)
	}
}

func TestByteRangeHeaders(t *testing.T) {
	r := ByteRange{Start: 1_000_000, End: 1_999_999, Total: 2_500_000}
	assert.Equal(t, int64(1_000_000), r.Length())
	assert.Equal(t, "bytes 1000000-1999999/2500000", r.ContentRange())
}

func TestResolveRangeOpenEndBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		total := rng.Int63n(5_000_000) + 1
		chunk := rng.Int63n(2_000_000) + 1
		start := rng.Int63n(total)

		got, err := ResolveRange("bytes="+itoa64(start)+"-", total, chunk)
		require.NoError(t, err)
		assert.Equal(t, start, got.Start)
		assert.LessOrEqual(t, got.Start, got.End)
		assert.LessOrEqual(t, got.End, total-1)
		assert.LessOrEqual(t, got.Length(), chunk)
	}
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
