package yamlrecover_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/relaykit/conductor/internal/yamlrecover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFencedYAML(body string) string {
	return fmt.Sprintf("```yaml\n%s\n```", body)
}

func TestExtractYAML_FencedYAMLBlock(t *testing.T) {
	text := "Here is my plan:\n" + buildFencedYAML("name: widget\ncount: 3") + "\nLet me know what you think."
	got := yamlrecover.ExtractYAML(text)
	assert.Equal(t, "name: widget\ncount: 3", got)
}

func TestExtractYAML_PrefersYAMLTaggedFence(t *testing.T) {
	text := "```json\n{\"a\": 1}\n```\n" + buildFencedYAML("a: 1")
	got := yamlrecover.ExtractYAML(text)
	assert.Equal(t, "a: 1", got)
}

func TestExtractYAML_FallsBackToFirstFence(t *testing.T) {
	text := "```\na: 1\nb: 2\n```"
	got := yamlrecover.ExtractYAML(text)
	assert.Equal(t, "a: 1\nb: 2", got)
}

func TestExtractYAML_FallsBackToWholeText(t *testing.T) {
	text := "  a: 1\nb: 2  "
	got := yamlrecover.ExtractYAML(text)
	assert.Equal(t, "a: 1\nb: 2", got)
}

func TestExtractYAML_StripsLeadingDocumentSeparator(t *testing.T) {
	text := buildFencedYAML("---\na: 1\nb: 2")
	got := yamlrecover.ExtractYAML(text)
	assert.Equal(t, "a: 1\nb: 2", got)
}

func TestExtractYAML_RoundTripsFenceFreeText(t *testing.T) {
	x := "name: widget\ncount: 3\nnested:\n  key: value"
	got := yamlrecover.ExtractYAML(buildFencedYAML(x))
	assert.Equal(t, x, got)
}

type widget struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestParseMulti_SingleDocument(t *testing.T) {
	got, err := yamlrecover.ParseMulti[widget]("name: a\ncount: 1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, widget{Name: "a", Count: 1}, got[0])
}

func TestParseMulti_MultipleDocuments(t *testing.T) {
	text := "name: a\ncount: 1\n---\nname: b\ncount: 2\n---\nname: c\ncount: 3"
	got, err := yamlrecover.ParseMulti[widget](text)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, "c", got[2].Name)
}

func TestParseMulti_SkipsEmptyDocuments(t *testing.T) {
	text := "---\nname: a\ncount: 1\n---\n\n---\nname: b\ncount: 2\n---\n"
	got, err := yamlrecover.ParseMulti[widget](text)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestParseMulti_DuplicateKeyIsFlagged(t *testing.T) {
	text := "name: a\nname: b\ncount: 1"
	_, err := yamlrecover.ParseMulti[widget](text)
	require.Error(t, err)
	assert.ErrorIs(t, err, yamlrecover.ErrDuplicateKey)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestParseMulti_ParseErrorIncludesTruncatedPreview(t *testing.T) {
	text := "name: [unterminated"
	_, err := yamlrecover.ParseMulti[widget](text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source preview")
}

func TestParseMulti_PreviewTruncatedTo500Chars(t *testing.T) {
	huge := "name: [unterminated " + strings.Repeat("x", 1000)
	_, err := yamlrecover.ParseMulti[widget](huge)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "...")
}

func TestParseMulti_EmptyInputYieldsNoDocuments(t *testing.T) {
	got, err := yamlrecover.ParseMulti[widget]("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
