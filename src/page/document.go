package page

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/carlmjohnson/requests"
	"golang.org/x/net/html"

	"holonet.gg/v1/encounter-builder/src/jsonutil"
	"holonet.gg/v1/encounter-builder/src/object"
)

// DefaultDataID is the id of the hidden input the server embeds page data
// in.
const DefaultDataID = "page-data"

// Document is a parsed hosted page.
type Document struct {
	root *html.Node

	dataOnce sync.Once
	data     object.Mapping
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Fetch downloads and parses the page at url.
func Fetch(ctx context.Context, url string, userAgent string) (*Document, error) {
	var body string
	err := requests.URL(url).
		UserAgent(userAgent).
		Accept("text/html").
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("[%s]: %w", url, err)
	}
	return ParseString(body)
}

// InputValue returns the value of the first input element with the given
// name.
func (d *Document) InputValue(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	node := find(d.root, func(n *html.Node) bool {
		v, ok := attr(n, "name")
		return n.Data == "input" && ok && v == name
	})
	if node == nil {
		return "", false
	}
	value, _ := attr(node, "value")
	return value, true
}

// ElementValue returns the value attribute of the element with the given
// id.
func (d *Document) ElementValue(id string) (string, bool) {
	if d == nil {
		return "", false
	}
	node := find(d.root, func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	})
	if node == nil {
		return "", false
	}
	value, _ := attr(node, "value")
	return value, true
}

// EmbeddedData decodes the JSON held in the value of the element with the
// given id. A missing element or malformed JSON gives an empty mapping.
func (d *Document) EmbeddedData(id string) object.Mapping {
	value, ok := d.ElementValue(id)
	if !ok {
		return object.Mapping{}
	}
	parsed, _ := jsonutil.TryParse(value).OrElse(nil).(object.Mapping)
	if parsed == nil {
		return object.Mapping{}
	}
	return parsed
}

// PageData returns the page's embedded data, read once.
func (d *Document) PageData() object.Mapping {
	if d == nil {
		return object.Mapping{}
	}
	d.dataOnce.Do(func() {
		d.data = d.EmbeddedData(DefaultDataID)
	})
	return d.data
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := find(child, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
