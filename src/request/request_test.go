package request

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holonet.gg/v1/encounter-builder/src/csrf"
	"holonet.gg/v1/encounter-builder/src/object"
)

type captured struct {
	Method string
	Query  url.Values
	Header http.Header
	Body   string
}

type backend struct {
	mu       sync.Mutex
	requests []captured
	status   int
	body     string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.requests = append(b.requests, captured{
		Method: r.Method,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	status, respBody := b.status, b.body
	b.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, respBody)
}

func (b *backend) last(t *testing.T) captured {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.requests)
	return b.requests[len(b.requests)-1]
}

func newSession(t *testing.T, b http.Handler) *Session {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return NewSession(Config{Origin: srv.URL, Tokens: csrf.Static("tok-123")})
}

func await(t *testing.T, f *Future) (*Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := f.Await(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return resp, err
}

func TestGetStarships(t *testing.T) {
	b := &backend{body: `{"results":[{"id":7,"name":"Millennium Falcon"}]}`}
	s := newSession(t, b)

	resp, err := await(t, s.Get(context.Background(), "/encounters/api/starships", object.Mapping{"q": "falcon"}))
	require.NoError(t, err)

	results := resp.Results()
	require.Len(t, results, 1)
	assert.Equal(t, float64(7), results[0]["id"])
	assert.Equal(t, "Millennium Falcon", results[0]["name"])

	got := b.last(t)
	assert.Equal(t, GET, got.Method)
	assert.Equal(t, "falcon", got.Query.Get("q"))
	assert.Equal(t, "json", got.Query.Get("format"))
	assert.Empty(t, got.Header.Get(csrf.HeaderName))
	assert.Empty(t, got.Body)
}

func TestGetMergesQuery(t *testing.T) {
	tests := []struct {
		name string
		url  string
		data object.Mapping
		want url.Values
	}{
		{
			name: "caller data wins",
			url:  "/api/starships?q=x-wing&page=2",
			data: object.Mapping{"q": "falcon"},
			want: url.Values{"q": {"falcon"}, "page": {"2"}, "format": {"json"}},
		},
		{
			name: "explicit format kept",
			url:  "/api/starships?format=api",
			want: url.Values{"format": {"api"}},
		},
		{
			name: "repeated format kept",
			url:  "/api/starships?format=api&format=csv",
			want: url.Values{"format": {"api", "csv"}},
		},
		{
			name: "empty format replaced",
			url:  "/api/starships?format=",
			want: url.Values{"format": {"json"}},
		},
		{
			name: "nil values dropped",
			url:  "/api/starships",
			data: object.Mapping{"q": nil},
			want: url.Values{"format": {"json"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &backend{body: `{}`}
			s := newSession(t, b)

			_, err := await(t, s.Get(context.Background(), tt.url, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.last(t).Query)
		})
	}
}

func TestGetDoesNotMutateInput(t *testing.T) {
	b := &backend{body: `{}`}
	s := newSession(t, b)

	data := object.Mapping{"q": "falcon", "skip": nil}
	_, err := await(t, s.Get(context.Background(), "/api/starships?page=1", data))
	require.NoError(t, err)
	assert.Equal(t, object.Mapping{"q": "falcon", "skip": nil}, data)
}

func TestPostEncodesBody(t *testing.T) {
	b := &backend{status: http.StatusCreated, body: `{"id":12}`}
	s := newSession(t, b)

	resp, err := await(t, s.Post(context.Background(), "/encounters/api/encounters/?page=1", object.Mapping{
		"name":  "Raid",
		"notes": "",
		"mobs":  []any{7, 9},
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(12), resp.Mapping()["id"])
	assert.Equal(t, http.StatusCreated, resp.Exchange.StatusCode)

	got := b.last(t)
	assert.Equal(t, POST, got.Method)
	assert.Equal(t, "tok-123", got.Header.Get(csrf.HeaderName))
	assert.Equal(t, formContentType, got.Header.Get("Content-Type"))
	assert.Equal(t, url.Values{"page": {"1"}, "format": {"json"}}, got.Query, "body fields stay out of the query")

	form, err := url.ParseQuery(got.Body)
	require.NoError(t, err)
	assert.Equal(t, url.Values{"name": {"Raid"}, "notes": {""}, "mobs": {"7", "9"}}, form)
}

func TestMutatingMethods(t *testing.T) {
	for _, method := range []string{PUT, PATCH, DELETE} {
		t.Run(method, func(t *testing.T) {
			b := &backend{body: `{}`}
			s := newSession(t, b)

			_, err := await(t, s.Request(context.Background(), "/api/encounters/3/", method, object.Mapping{"name": "x"}))
			require.NoError(t, err)

			got := b.last(t)
			assert.Equal(t, method, got.Method)
			assert.Equal(t, "tok-123", got.Header.Get(csrf.HeaderName))
			assert.Equal(t, "name=x", got.Body)
		})
	}
}

func TestPostFormDataPassesThrough(t *testing.T) {
	b := &backend{body: `{}`}
	s := newSession(t, b)

	form, err := NewFormData(object.Mapping{"name": "Raid"}, FormFile{Field: "map", Filename: "map.txt", Content: []byte("hoth")})
	require.NoError(t, err)

	_, err = await(t, s.Post(context.Background(), "/api/encounters/", form))
	require.NoError(t, err)

	got := b.last(t)
	assert.Equal(t, form.ContentType, got.Header.Get("Content-Type"))
	assert.Equal(t, string(form.Body), got.Body)
	assert.Equal(t, "tok-123", got.Header.Get(csrf.HeaderName))
}

func TestPostStatusError(t *testing.T) {
	b := &backend{status: http.StatusInternalServerError, body: `{"detail":"boom"}`}
	s := newSession(t, b)

	_, err := await(t, s.Post(context.Background(), "/encounters/api/encounters/", object.Mapping{
		"name": "Raid", "notes": "", "mobs": []any{7},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Status Error 500")
	assert.Equal(t, "POST: Status Error 500", err.Error())
	assert.ErrorIs(t, err, ErrStatus)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 500, reqErr.StatusCode)
	assert.Equal(t, POST, reqErr.Exchange.Method)
}

func TestRedirectStatusIsSuccess(t *testing.T) {
	b := &backend{status: http.StatusNotModified}
	s := newSession(t, b)

	resp, err := await(t, s.Get(context.Background(), "/api/starships", nil))
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	origin := srv.URL
	srv.Close()

	s := NewSession(Config{Origin: origin})
	_, err := await(t, s.Get(context.Background(), "/api/starships", nil))
	require.Error(t, err)
	assert.Equal(t, "GET: Network Error", err.Error())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestNonJSONBodyResolvesWithNilData(t *testing.T) {
	b := &backend{body: "<html>ok</html>"}
	s := newSession(t, b)

	resp, err := await(t, s.Get(context.Background(), "/", nil))
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
	assert.Equal(t, "<html>ok</html>", string(resp.Exchange.ResponseBody))
}

func TestRedirectNavigatesInsteadOfResolving(t *testing.T) {
	b := &backend{body: `{"redirect":"/encounters/7"}`}
	srv := httptest.NewServer(b)
	defer srv.Close()

	navigated := make(chan string, 1)
	s := NewSession(Config{
		Origin:    srv.URL,
		Navigator: NavigatorFunc(func(location string) { navigated <- location }),
	})

	future := s.Get(context.Background(), "/api/encounters", nil)
	select {
	case location := <-navigated:
		assert.Equal(t, "/encounters/7", location)
	case <-time.After(5 * time.Second):
		t.Fatal("navigator was not called")
	}

	time.Sleep(50 * time.Millisecond)
	assert.False(t, future.Settled())
}

func TestNonStringRedirectIsStringified(t *testing.T) {
	b := &backend{body: `{"redirect":true}`}
	srv := httptest.NewServer(b)
	defer srv.Close()

	navigated := make(chan string, 1)
	s := NewSession(Config{
		Origin:    srv.URL,
		Navigator: NavigatorFunc(func(location string) { navigated <- location }),
	})

	future := s.Get(context.Background(), "/api/encounters", nil)
	select {
	case location := <-navigated:
		assert.Equal(t, "true", location)
	case <-time.After(5 * time.Second):
		t.Fatal("navigator was not called")
	}
	assert.False(t, future.Settled())
}

func TestFalsyRedirectResolves(t *testing.T) {
	b := &backend{body: `{"redirect":"","id":3}`}
	s := newSession(t, b)

	resp, err := await(t, s.Get(context.Background(), "/api/encounters", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(3), resp.Mapping()["id"])
}

func TestAbortLeavesFuturePending(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Config{Origin: srv.URL})
	future := client.Get(context.Background(), "/slow", nil)

	<-arrived
	client.Abort()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := future.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, future.Settled())
}

func TestNewRequestAbortsPrevious(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			<-r.Context().Done()
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	client := NewClient(Config{Origin: srv.URL})
	first := client.Get(context.Background(), "/a", nil)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 5*time.Second, 10*time.Millisecond)

	second := client.Get(context.Background(), "/b", nil)
	resp, err := await(t, second)
	require.NoError(t, err)
	assert.Equal(t, true, resp.Mapping()["ok"])

	time.Sleep(50 * time.Millisecond)
	assert.False(t, first.Settled())
}

func TestSessionCallsAreIndependent(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			<-release
		}
		_, _ = io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	}))
	defer srv.Close()

	s := NewSession(Config{Origin: srv.URL})
	slow := s.Get(context.Background(), "/slow", nil)
	fast := s.Get(context.Background(), "/fast", nil)

	resp, err := await(t, fast)
	require.NoError(t, err)
	assert.Equal(t, "/fast", resp.Mapping()["path"])
	assert.False(t, slow.Settled())

	close(release)
	resp, err = await(t, slow)
	require.NoError(t, err)
	assert.Equal(t, "/slow", resp.Mapping()["path"])
}

func TestResolveURL(t *testing.T) {
	c := NewClient(Config{Origin: "http://localhost:8000/"})
	assert.Equal(t, "http://localhost:8000/api/x", c.resolve("/api/x"))
	assert.Equal(t, "http://localhost:8000/api/x", c.resolve("api/x"))
	assert.Equal(t, "https://swapi.dev/api", c.resolve("https://swapi.dev/api"))

	bare := NewClient(Config{})
	assert.Equal(t, "/api/x", bare.resolve("/api/x"))
}

func TestResultsSkipsNonMappings(t *testing.T) {
	resp := &Response{Data: object.Mapping{"results": []any{object.Mapping{"id": 1.0}, "junk", nil}}}
	assert.Len(t, resp.Results(), 1)

	var empty *Response
	assert.Empty(t, empty.Results())
}
