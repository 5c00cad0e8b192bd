package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrNoScriptedResponse = errors.New("llm: fake client has no more responses")

// FakeClient replays a scripted sequence of responses for offline use and
// tests.
type FakeClient struct {
	mu        sync.Mutex
	responses []json.RawMessage
	errs      []error
	// Prompts records every prompt received, for assertions.
	Prompts []string
}

func NewFakeClient(responses ...json.RawMessage) *FakeClient {
	// errs stays aligned with responses so Enqueue/EnqueueErr can be mixed
	// with constructor-seeded responses.
	return &FakeClient{
		responses: responses,
		errs:      make([]error, len(responses)),
	}
}

// Enqueue appends a scripted response.
func (f *FakeClient) Enqueue(raw json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, raw)
	f.errs = append(f.errs, nil)
}

// EnqueueErr appends a scripted failure.
func (f *FakeClient) EnqueueErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, nil)
	f.errs = append(f.errs, err)
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if len(f.responses) == 0 {
		return nil, ErrNoScriptedResponse
	}
	out := f.responses[0]
	f.responses = f.responses[1:]
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
