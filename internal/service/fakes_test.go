package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Strob0t/StatForge/internal/domain/conversation"
	"github.com/Strob0t/StatForge/internal/port/broadcast"
	"github.com/Strob0t/StatForge/internal/port/database"
	"github.com/Strob0t/StatForge/internal/port/llm"
	"github.com/Strob0t/StatForge/internal/port/retrieval"
)

// fakeStore records every query and answers with a canned result.
type fakeStore struct {
	mu      sync.Mutex
	result  *database.QueryResult
	results []*database.QueryResult // consumed in order when set
	err     error
	queries []string
	args    [][]any
}

func (f *fakeStore) ExecuteReadOnly(_ context.Context, query string, args ...any) (*database.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > 0 {
		r := f.results[0]
		f.results = f.results[1:]
		return r, nil
	}
	if f.result == nil {
		return &database.QueryResult{}, nil
	}
	return f.result, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeLLM replies from a script; the last reply repeats once the script runs out.
type fakeLLM struct {
	mu        sync.Mutex
	replies   []string
	err       error
	errAt     int // 1-based call that fails; 0 = use err on every call
	calls     int
	seen      [][]conversation.Message
	available bool
	exists    bool
	block     bool // wait for ctx cancellation
}

func (f *fakeLLM) Chat(ctx context.Context, msgs []conversation.Message, _ llm.ChatOptions) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.seen = append(f.seen, msgs)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil && (f.errAt == 0 || f.errAt == n) {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	if n > len(f.replies) {
		return f.replies[len(f.replies)-1], nil
	}
	return f.replies[n-1], nil
}

func (f *fakeLLM) IsAvailable(context.Context) bool { return f.available }

func (f *fakeLLM) ModelExists(context.Context) (bool, error) {
	if !f.exists {
		return false, errors.New("model not pulled")
	}
	return true, nil
}

func (f *fakeLLM) Model() string { return "test-model" }

// fakeSearcher returns canned documents and records the last request.
type fakeSearcher struct {
	docs []retrieval.Document
	err  error
	last retrieval.Request
}

func (f *fakeSearcher) Search(_ context.Context, req retrieval.Request) ([]retrieval.Document, error) {
	f.last = req
	return f.docs, f.err
}

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

// recordingHub captures broadcast event types.
type recordingHub struct {
	mu     sync.Mutex
	events []string
	runIDs []string
}

func (h *recordingHub) Broadcast(_ context.Context, ev broadcast.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev.Type)
	h.runIDs = append(h.runIDs, ev.RunID)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
