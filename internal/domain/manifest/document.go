package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/oshokin/plugin-packager/internal/domain/packaging"
)

// Shape is the top-level form a manifest was read in.
type Shape int

const (
	// ShapeObject is a bare JSON object.
	ShapeObject Shape = iota + 1
	// ShapeArray is a JSON array whose first element is an object.
	ShapeArray
)

// String returns a human-readable shape name.
func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	default:
		return "unknown"
	}
}

// utf8BOM is stripped before parsing; editors on Windows like to add it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a parsed manifest.
type Document struct {
	// shape is the top-level form of the parsed input.
	shape Shape
	// head is the effective record: the object itself or the first array element.
	head *Record
	// rest holds the array elements after the first one, untouched.
	rest []json.RawMessage
}

// NewDocument wraps a record into an object-shaped document.
func NewDocument(head *Record) *Document {
	return &Document{
		shape: ShapeObject,
		head:  head,
	}
}

// Parse decodes a manifest. Malformed JSON yields packaging.ErrInvalidFormat;
// well-formed JSON of any other shape yields packaging.ErrUnexpectedFormat.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", packaging.ErrInvalidFormat, err)
	}

	raw = bytes.TrimSpace(raw)

	switch raw[0] {
	case '{':
		head := NewRecord()
		if err := head.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("%w: %w", packaging.ErrInvalidFormat, err)
		}

		return &Document{
			shape: ShapeObject,
			head:  head,
		}, nil
	case '[':
		return parseArray(raw)
	default:
		return nil, fmt.Errorf("%w: top level is neither an object nor an array", packaging.ErrUnexpectedFormat)
	}
}

func parseArray(raw json.RawMessage) (*Document, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", packaging.ErrInvalidFormat, err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: array is empty", packaging.ErrUnexpectedFormat)
	}

	first := bytes.TrimSpace(items[0])
	if len(first) == 0 || first[0] != '{' {
		return nil, fmt.Errorf("%w: first array element is not an object", packaging.ErrUnexpectedFormat)
	}

	head := NewRecord()
	if err := head.UnmarshalJSON(first); err != nil {
		return nil, fmt.Errorf("%w: %w", packaging.ErrInvalidFormat, err)
	}

	return &Document{
		shape: ShapeArray,
		head:  head,
		rest:  items[1:],
	}, nil
}

// Shape returns the top-level form the document was parsed from.
func (d *Document) Shape() Shape {
	return d.shape
}

// Head returns the effective record. Mutations are reflected by Encode.
func (d *Document) Head() *Record {
	return d.head
}

// Len returns the number of elements the normalized array holds.
func (d *Document) Len() int {
	return 1 + len(d.rest)
}

// Encode renders the normalized manifest: always an array, indented with two
// spaces, HTML characters and non-ASCII text written as is.
func (d *Document) Encode() ([]byte, error) {
	items := make([]any, 0, d.Len())
	items = append(items, d.head)

	for _, item := range d.rest {
		items = append(items, item)
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(items); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}
