package csrf

import (
	"context"
	"io"
	"sync"

	"github.com/a-h/templ"
)

const (
	// FieldName is the hidden input the server renders the token into.
	FieldName = "csrfmiddlewaretoken"
	// HeaderName carries the token on mutating requests.
	HeaderName = "X-CSRFToken"
)

// Document is anything a token can be read from.
type Document interface {
	InputValue(name string) (string, bool)
}

// TokenSource reads the mutation token from the hosted document the first
// time it is asked for and hands out the same value for the rest of the
// session.
type TokenSource struct {
	doc   Document
	once  sync.Once
	token string
}

func NewTokenSource(doc Document) *TokenSource {
	return &TokenSource{doc: doc}
}

// Static returns a source that always yields token.
func Static(token string) *TokenSource {
	s := &TokenSource{}
	s.once.Do(func() { s.token = token })
	return s
}

// Token returns the cached token, or "" when the document has none.
func (s *TokenSource) Token() string {
	if s == nil {
		return ""
	}
	s.once.Do(func() {
		if s.doc == nil {
			return
		}
		if value, ok := s.doc.InputValue(FieldName); ok {
			s.token = value
		}
	})
	return s.token
}

// Input renders a hidden form field carrying the token.
func (s *TokenSource) Input() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<input name="`+FieldName+`" type="hidden" value="`+templ.EscapeString(s.Token())+`" />`)
		return err
	})
}
