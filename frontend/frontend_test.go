package frontend

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

type stubResolver struct {
	known map[string]stream.Location
}

func (s stubResolver) LocationOf(path string) (stream.Location, error) {
	if loc, ok := s.known[path]; ok {
		return loc, nil
	}
	return stream.Location{}, &ParseError{Kind: UnknownMount, Detail: "no mount for " + path}
}

func (s stubResolver) Prefixes() []string {
	out := make([]string, 0, len(s.known))
	for k := range s.known {
		out = append(out, k)
	}
	return out
}

func clientOnlyResolver() stubResolver {
	return stubResolver{known: map[string]stream.Location{
		"a.txt":     stream.Client(),
		"b.txt":     stream.Client(),
		"out.txt":   stream.Client(),
		"sub.txt":   stream.Client(),
	}}
}

func TestTokenizeSimplePipeline(t *testing.T) {
	elems, err := Tokenize("cat a.txt | wc")
	require.NoError(t, err)
	require.Len(t, elems, 4)
	assert.Equal(t, ElemWord, elems[0].Kind)
	assert.Equal(t, "cat", elems[0].Word)
	assert.Equal(t, ElemWord, elems[1].Kind)
	assert.Equal(t, "a.txt", elems[1].Word)
	assert.Equal(t, ElemPipe, elems[2].Kind)
	assert.Equal(t, ElemWord, elems[3].Kind)
}

func TestTokenizeQuotesPreserveWildcardLiterally(t *testing.T) {
	elems, err := Tokenize(`grep '*.txt' a.txt`)
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, "*.txt", elems[1].Word)
}

func TestTokenizeUnterminatedQuoteFails(t *testing.T) {
	_, err := Tokenize(`grep 'foo`)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Quotes, perr.Kind)
}

func TestTokenizeUnclosedParens(t *testing.T) {
	_, err := Tokenize(`cat <(wc a.txt`)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, UnclosedParens, perr.Kind)
}

func TestTokenizeRedirections(t *testing.T) {
	elems, err := Tokenize("wc < a.txt > out.txt 2> err.txt")
	require.NoError(t, err)
	var kinds []ElementKind
	for _, e := range elems {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []ElementKind{ElemWord, ElemStdin, ElemStdout, ElemStderr}, kinds)
}

func TestBuildShellGraphEmptyCommandFails(t *testing.T) {
	elems, err := Tokenize("cat | | wc")
	require.NoError(t, err)
	_, err = BuildShellGraph(elems)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, EmptyCommand, perr.Kind)
}

func TestConvertIntoProgramCatPipeWc(t *testing.T) {
	result, err := ParseCommand("cat < a.txt | wc", 1, clientOnlyResolver())
	require.NoError(t, err)
	require.NotNil(t, result.Program)
	require.Nil(t, result.Export)

	p := result.Program
	// read(a.txt) -> cat -> wc -> write(stdout), plus two stderr terminators.
	assert.Equal(t, 6, p.NodeCount())
	assert.Len(t, p.Edges(), 5)
}

func TestConvertIntoProgramProcessSubstitution(t *testing.T) {
	result, err := ParseCommand("wc <(cat < sub.txt)", 1, clientOnlyResolver())
	require.NoError(t, err)
	p := result.Program
	require.NotNil(t, p)
	// read(sub.txt) -> cat -> [pipe into wc stdin] ; wc -> write(stdout); two stderr terminators.
	assert.Equal(t, 6, p.NodeCount())

	var wcCmd *node.CommandNode
	for _, id := range p.NodeIDs() {
		if cmd, ok := p.Node(id).(*node.CommandNode); ok && cmd.Name == "wc" {
			wcCmd = cmd
		}
	}
	require.NotNil(t, wcCmd, "expected a wc CommandNode in the lowered program")
	assert.Empty(t, wcCmd.Args, "the <( … ) subcommand must only wire an implicit stdin edge, never an argv entry")
}

func TestParseCommandExportDirective(t *testing.T) {
	result, err := ParseCommand("export FOO=bar", 1, clientOnlyResolver())
	require.NoError(t, err)
	require.NotNil(t, result.Export)
	assert.Equal(t, "FOO", result.Export.Var)
	assert.Equal(t, "bar", result.Export.Value)
}

func TestParseCommandUnknownMountSuggestsClosest(t *testing.T) {
	_, err := ParseCommand("cat missing.txt", 1, clientOnlyResolver())
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, UnknownMount, perr.Kind)
}

func TestShellGraphWriteDot(t *testing.T) {
	elems, err := Tokenize("cat a.txt | wc")
	require.NoError(t, err)
	g, err := BuildShellGraph(elems)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.WriteDot(&buf))
	assert.Contains(t, buf.String(), "digraph shell {")
}
