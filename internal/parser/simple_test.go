package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pdfcrawl/internal/parser"
)

func newSimple(t *testing.T) parser.Parser {
	t.Helper()

	p, err := parser.New(parser.DefaultName, nil)
	require.NoError(t, err)

	return p
}

func TestSimpleParserExtractsTitleAndLinks(t *testing.T) {
	p := newSimple(t)

	title, links := p.Parse(`<html>
		<head><title> Papers Index </title></head>
		<body>
			<a href="a.pdf">First paper</a>
			<a href="http://example.com/b.pdf"></a>
			<a href="">empty href</a>
			<a>no href</a>
		</body></html>`)

	require.NotNil(t, title)
	assert.Equal(t, "Papers Index", *title)

	require.Len(t, links, 2)
	assert.Equal(t, "a.pdf", links[0].URL)
	require.NotNil(t, links[0].Text)
	assert.Equal(t, "First paper", *links[0].Text)
	assert.Nil(t, links[0].Priority)

	assert.Equal(t, "http://example.com/b.pdf", links[1].URL)
	assert.Nil(t, links[1].Text)
}

func TestSimpleParserSkipsNofollowAnchors(t *testing.T) {
	p := newSimple(t)

	_, links := p.Parse(`<html><body>
		<a href="keep.html">keep</a>
		<a href="skip.html" rel="nofollow">skip</a>
		<a href="skip2.html" rel="external nofollow">skip too</a>
	</body></html>`)

	require.Len(t, links, 1)
	assert.Equal(t, "keep.html", links[0].URL)
}

func TestSimpleParserHonorsRobotsMeta(t *testing.T) {
	p := newSimple(t)

	tests := []struct {
		name    string
		content string
	}{
		{"noindex", "noindex"},
		{"nofollow", "nofollow"},
		{"combined", "noindex, nofollow"},
		{"uppercase", "NOFOLLOW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, links := p.Parse(`<html>
				<head><title>Hidden</title><meta name="robots" content="` + tt.content + `"></head>
				<body><a href="x.html">x</a></body></html>`)

			assert.Nil(t, title)
			assert.Empty(t, links)
		})
	}
}

func TestSimpleParserToleratesBrokenMarkup(t *testing.T) {
	p := newSimple(t)

	title, links := p.Parse(`<a href="x.html">unclosed`)
	assert.Nil(t, title)
	require.Len(t, links, 1)
	assert.Equal(t, "x.html", links[0].URL)
}

func TestRegistryRejectsUnknownName(t *testing.T) {
	_, err := parser.New("no-such-parser", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-parser")
}

func TestRegistryNamesIncludeDefault(t *testing.T) {
	assert.Contains(t, parser.Names(), parser.DefaultName)
}
