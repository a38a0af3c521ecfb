package frontend

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	toks := NewLexer(`var x = 1 + 2;`).ScanTokens()
	want := []TokenType{VAR, IDENT, EQUAL, NUMBER, PLUS, NUMBER, SEMICOLON, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestLexerRangeOperator(t *testing.T) {
	toks := NewLexer(`1..4`).ScanTokens()
	want := []TokenType{NUMBER, DOTDOT, NUMBER, EOF}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestLexerNamespaceOperator(t *testing.T) {
	toks := NewLexer(`M::x`).ScanTokens()
	want := []TokenType{IDENT, COLONCOLON, IDENT, EOF}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestLexerTracksLineAndColumn(t *testing.T) {
	toks := NewLexer("var x\n= 1;").ScanTokens()
	eq := toks[2]
	if eq.Line != 2 || eq.Column != 1 {
		t.Errorf("'=' at %d:%d, want 2:1", eq.Line, eq.Column)
	}
}
