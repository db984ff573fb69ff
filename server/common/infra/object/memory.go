package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const backendMemory = "memory"

var errObjectMissing = errors.New("object does not exist")

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryGateway keeps objects in process memory. It backs STORAGE_DRIVER=memory
// for local runs and the service tests.
type MemoryGateway struct {
	mu       sync.RWMutex
	objects  map[string]memoryObject
	failures map[string]error
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{objects: map[string]memoryObject{}, failures: map[string]error{}}
}

// FailOn makes every later call of op ("head", "get_range", "put", "remove",
// "ping") fail with err. A nil err clears it.
func (g *MemoryGateway) FailOn(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failures, op)
		return
	}
	g.failures[op] = err
}

func (g *MemoryGateway) Has(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.objects[key]
	return ok
}

func (g *MemoryGateway) Store(key string, data []byte, contentType string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
}

func (g *MemoryGateway) lookup(op, key string) (memoryObject, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.failures[op]; err != nil {
		return memoryObject{}, unavailable(op, key, err)
	}
	obj, ok := g.objects[key]
	if !ok {
		return memoryObject{}, notFound(op, key, errObjectMissing)
	}
	return obj, nil
}

func (g *MemoryGateway) Head(_ context.Context, key string) (meta ObjectMeta, err error) {
	defer func(startedAt time.Time) { observe(backendMemory, "head", startedAt, err) }(time.Now())
	obj, err := g.lookup("head", key)
	if err != nil {
		return ObjectMeta{}, err
	}
	return ObjectMeta{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (g *MemoryGateway) GetRange(_ context.Context, key string, start, end int64) (rc io.ReadCloser, err error) {
	defer func(startedAt time.Time) { observe(backendMemory, "get_range", startedAt, err) }(time.Now())
	obj, err := g.lookup("get_range", key)
	if err != nil {
		return nil, err
	}
	size := int64(len(obj.data))
	if start < 0 || start >= size || end < start {
		return nil, unavailable("get_range", key, fmt.Errorf("invalid range %d-%d of %d", start, end, size))
	}
	if end >= size {
		end = size - 1
	}
	return io.NopCloser(bytes.NewReader(obj.data[start : end+1])), nil
}

func (g *MemoryGateway) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (err error) {
	defer func(startedAt time.Time) { observe(backendMemory, "put", startedAt, err) }(time.Now())
	data, err := io.ReadAll(r)
	if err != nil {
		return unavailable("put", key, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if ferr := g.failures["put"]; ferr != nil {
		return unavailable("put", key, ferr)
	}
	g.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

func (g *MemoryGateway) Remove(_ context.Context, key string) (err error) {
	defer func(startedAt time.Time) { observe(backendMemory, "remove", startedAt, err) }(time.Now())
	g.mu.Lock()
	defer g.mu.Unlock()
	if ferr := g.failures["remove"]; ferr != nil {
		return unavailable("remove", key, ferr)
	}
	delete(g.objects, key)
	return nil
}

func (g *MemoryGateway) Ping(_ context.Context) (err error) {
	defer func(startedAt time.Time) { observe(backendMemory, "ping", startedAt, err) }(time.Now())
	g.mu.RLock()
	defer g.mu.RUnlock()
	if ferr := g.failures["ping"]; ferr != nil {
		return unavailable("ping", "", ferr)
	}
	return nil
}
