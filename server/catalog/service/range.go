package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const DefaultChunkSize int64 = 1_000_000

var (
	ErrRangeRequired       = errors.New("range header required")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive window [Start, End] of an object of Total bytes.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// ResolveRange turns a "bytes=start-[end]" header into the window to send.
// An open end is capped at chunkSize bytes; an explicit end is honored up to
// the last byte of the object.
func ResolveRange(header string, totalSize, chunkSize int64) (ByteRange, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return ByteRange{}, ErrRangeRequired
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if totalSize <= 0 {
		return ByteRange{}, fmt.Errorf("%w: empty object", ErrRangeNotSatisfiable)
	}

	unit, set, ok := strings.Cut(header, "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return ByteRange{}, fmt.Errorf("%w: unsupported unit", ErrRangeNotSatisfiable)
	}
	set = strings.TrimSpace(set)
	if strings.Contains(set, ",") {
		return ByteRange{}, fmt.Errorf("%w: multiple ranges", ErrRangeNotSatisfiable)
	}
	rawStart, rawEnd, ok := strings.Cut(set, "-")
	if !ok {
		return ByteRange{}, fmt.Errorf("%w: malformed range", ErrRangeNotSatisfiable)
	}
	rawStart, rawEnd = strings.TrimSpace(rawStart), strings.TrimSpace(rawEnd)
	if rawStart == "" {
		return ByteRange{}, fmt.Errorf("%w: suffix ranges are not supported", ErrRangeNotSatisfiable)
	}

	start, err := strconv.ParseInt(rawStart, 10, 64)
	if err != nil || start < 0 {
		return ByteRange{}, fmt.Errorf("%w: invalid start", ErrRangeNotSatisfiable)
	}
	if start >= totalSize {
		return ByteRange{}, fmt.Errorf("%w: start %d beyond size %d", ErrRangeNotSatisfiable, start, totalSize)
	}

	last := totalSize - 1
	var end int64
	if rawEnd == "" {
		end = min(start+chunkSize-1, last)
	} else {
		end, err = strconv.ParseInt(rawEnd, 10, 64)
		if err != nil {
			return ByteRange{}, fmt.Errorf("%w: invalid end", ErrRangeNotSatisfiable)
		}
		if end < start {
			return ByteRange{}, fmt.Errorf("%w: end before start", ErrRangeNotSatisfiable)
		}
		end = min(end, last)
	}
	return ByteRange{Start: start, End: end, Total: totalSize}, nil
}
