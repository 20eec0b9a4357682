package csrf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDoc struct {
	value string
	ok    bool
	reads int
}

func (d *countingDoc) InputValue(name string) (string, bool) {
	d.reads++
	if name != FieldName {
		return "", false
	}
	return d.value, d.ok
}

func TestTokenIsReadOnce(t *testing.T) {
	doc := &countingDoc{value: "abc", ok: true}
	src := NewTokenSource(doc)

	assert.Equal(t, "abc", src.Token())
	doc.value = "rotated"
	assert.Equal(t, "abc", src.Token())
	assert.Equal(t, 1, doc.reads)
}

func TestTokenMissingField(t *testing.T) {
	doc := &countingDoc{}
	src := NewTokenSource(doc)

	assert.Equal(t, "", src.Token())
	assert.Equal(t, "", src.Token())
	assert.Equal(t, 1, doc.reads)
}

func TestNilSources(t *testing.T) {
	var src *TokenSource
	assert.Equal(t, "", src.Token())
	assert.Equal(t, "", NewTokenSource(nil).Token())
}

func TestStatic(t *testing.T) {
	assert.Equal(t, "fixed", Static("fixed").Token())
}

func TestInput(t *testing.T) {
	var b strings.Builder
	err := Static(`a"b`).Input().Render(context.Background(), &b)
	require.NoError(t, err)
	assert.Equal(t, `<input name="csrfmiddlewaretoken" type="hidden" value="a&#34;b" />`, b.String())
}
