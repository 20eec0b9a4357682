package request

import (
	"context"

	"holonet.gg/v1/encounter-builder/src/object"
)

// Session hands every call its own Client, so concurrent calls never
// share a transport. Calls made through a Session cannot be aborted; use
// NewClient when a request needs to be cancellable.
type Session struct {
	cfg Config
}

func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

func (s *Session) NewClient() *Client {
	return NewClient(s.cfg)
}

func (s *Session) Get(ctx context.Context, url string, data object.Mapping) *Future {
	return s.NewClient().Get(ctx, url, data)
}

func (s *Session) Post(ctx context.Context, url string, data any) *Future {
	return s.NewClient().Post(ctx, url, data)
}

func (s *Session) Put(ctx context.Context, url string, data any) *Future {
	return s.NewClient().Put(ctx, url, data)
}

func (s *Session) Patch(ctx context.Context, url string, data any) *Future {
	return s.NewClient().Patch(ctx, url, data)
}

func (s *Session) Delete(ctx context.Context, url string, data any) *Future {
	return s.NewClient().Delete(ctx, url, data)
}

func (s *Session) Request(ctx context.Context, url, method string, data any) *Future {
	return s.NewClient().Request(ctx, url, method, data)
}
