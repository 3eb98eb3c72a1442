package fznparse

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// flatZincLexer is a single-state stateful lexer for the FlatZinc subset
// this package parses. Rule order matters: predicate signatures are
// swallowed whole (their contents are never modeled), ".." and "::" must be
// tried before the bare punctuation class they would otherwise be split
// into, and Float must be tried before Int so "3.5" doesn't lex as "3"
// followed by a stray ".5".
var flatZincLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `%[^\n]*`, nil},

		// A predicate item's signature is never modeled (§Non-goals); it is
		// swallowed as one token so the grammar need not parse MiniZinc's
		// full parameter-type syntax.
		{"PredicateDecl", `predicate[\s(][^;]*;`, nil},

		{"Float", `-?[0-9]+\.[0-9]+([eE][+-]?[0-9]+)?`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"Ident", `[A-Za-z_][A-Za-z0-9_]*`, nil},

		{"DotDot", `\.\.`, nil},
		{"ColonColon", `::`, nil},
		{"Punctuation", `[\[\](){}:;,=]`, nil},

		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
