package manifest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/plugin-packager/internal/domain/packaging"
)

// TestParse_Shapes covers the accepted top-level forms.
func TestParse_Shapes(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`{"Name":"Plugin"}`))
	require.NoError(t, err)
	require.Equal(t, ShapeObject, doc.Shape())
	require.Equal(t, 1, doc.Len())

	doc, err = Parse([]byte(`[{"Name":"Plugin"},{"Name":"Other"}]`))
	require.NoError(t, err)
	require.Equal(t, ShapeArray, doc.Shape())
	require.Equal(t, 2, doc.Len())
	require.Equal(t, []string{"Name"}, doc.Head().Keys())
}

// TestParse_Errors maps malformed and oddly shaped input to the error taxonomy.
func TestParse_Errors(t *testing.T) {
	t.Parallel()

	invalid := []string{``, `{`, `{"a":}`, `[1,]`, `not json`}
	for _, input := range invalid {
		_, err := Parse([]byte(input))
		require.ErrorIs(t, err, packaging.ErrInvalidFormat, input)
	}

	unexpected := []string{`[]`, `[1]`, `["x",{}]`, `"text"`, `42`, `null`, `true`}
	for _, input := range unexpected {
		_, err := Parse([]byte(input))
		require.ErrorIs(t, err, packaging.ErrUnexpectedFormat, input)
	}
}

// TestParse_StripsBOM accepts manifests saved with a UTF-8 byte order mark.
func TestParse_StripsBOM(t *testing.T) {
	t.Parallel()

	doc, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, `{"Name":"Plugin"}`...))
	require.NoError(t, err)
	require.True(t, doc.Head().HasValue("Name"))
}

// TestEncode_WrapsObject checks that a bare object is written as a one-element array.
func TestEncode_WrapsObject(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`{"Name":"Plugin","Punchline":"Switch jobs"}`))
	require.NoError(t, err)

	out, err := doc.Encode()
	require.NoError(t, err)

	want := "[\n  {\n    \"Name\": \"Plugin\",\n    \"Punchline\": \"Switch jobs\"\n  }\n]\n"
	require.Equal(t, want, string(out))
}

// TestEncode_KeepsArrayLength verifies trailing elements of an array survive untouched.
func TestEncode_KeepsArrayLength(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`[{"Name":"A"}, 7, {"Name":"B"}]`))
	require.NoError(t, err)

	doc.Head().Set("Extra", json.RawMessage(`"x"`))

	out, err := doc.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `[{"Name":"A","Extra":"x"},7,{"Name":"B"}]`, string(out))

	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(out, &items))
	require.Len(t, items, 3)
}

// TestEncode_Verbatim checks that non-ASCII and HTML characters are not escaped.
func TestEncode_Verbatim(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`{"Description":"Смена профессий <fast> & easy ジョブ"}`))
	require.NoError(t, err)

	out, err := doc.Encode()
	require.NoError(t, err)
	require.Contains(t, string(out), "Смена профессий <fast> & easy ジョブ")
	require.False(t, strings.Contains(string(out), `\u`))
}

// TestNewDocument wraps a fresh record.
func TestNewDocument(t *testing.T) {
	t.Parallel()

	r := NewRecord()
	r.Set("Name", json.RawMessage(`"Plugin"`))

	out, err := NewDocument(r).Encode()
	require.NoError(t, err)
	require.JSONEq(t, `[{"Name":"Plugin"}]`, string(out))
}
