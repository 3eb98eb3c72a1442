package fznparse

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"fzncore/pkg/fzn"
)

var flatZincParser = participle.MustBuild[Source](
	participle.Lexer(flatZincLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseFile reads path and translates it into a *fzn.Model and
// *fzn.ParseContext.
func ParseFile(path string) (*fzn.Model, *fzn.ParseContext, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fznparse: %w", err)
	}
	return ParseString(path, string(src))
}

// ParseString parses the given FlatZinc source. filename is used only for
// diagnostics.
func ParseString(filename, src string) (*fzn.Model, *fzn.ParseContext, error) {
	source, err := flatZincParser.ParseString(filename, src)
	if err != nil {
		reportParseError(src, err)
		return nil, nil, err
	}
	return translate(source)
}

// reportParseError prints a caret-style parse diagnostic to stderr.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("fznparse: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("fznparse: syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("fznparse: syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Fprintln(os.Stderr, line)
	color.HiRed(caret)
	fmt.Fprintf(os.Stderr, "→ %s\n", pe.Message())
}
