package lex

import (
	"strings"
)

/*
Tokens of the pool command language:

	put "alpha"                      STRING
	put 12 <http://example.org/a>    INT, IRI
	find "42"^^xsd:long              STRING, DATATYPE, IDENT
	scan ["a", "m")                  OPENSQUARE ... CLOSEDROUNDED

Keywords are case insensitive. An unterminated string or IRI lexes as INVALID.
*/

type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

func New(input string) *Lexer {
	l := &Lexer{
		input:   input,
		pos:     0,
		readPos: 0,
		ch:      0,
	}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() Token {
	l.skipWhiteSpaces()

	switch l.ch {
	case ',':
		return l.single(COMMA)
	case '*':
		return l.single(ASTERISK)
	case '[':
		return l.single(OPENSQUARE)
	case ']':
		return l.single(CLOSESQUARE)
	case '(':
		return l.single(OPENROUNDED)
	case ')':
		return l.single(CLOSEDROUNDED)
	case '^':
		if l.peekChar() == '^' {
			l.readChar()
			l.readChar()
			return Token{Kind: DATATYPE, Value: "^^"}
		}
		return l.single(INVALID)
	case '"':
		str, ok := l.readString()
		if !ok {
			return Token{Kind: INVALID, Value: str}
		}
		return Token{Kind: STRING, Value: str}
	case '<':
		iri, ok := l.readIRI()
		if !ok {
			return Token{Kind: INVALID, Value: iri}
		}
		return Token{Kind: IRI, Value: iri}
	case 0:
		return Token{Kind: END, Value: ""}
	default:
		if isLetter(l.ch) {
			str := l.keyIdentLookup() // str could be a keyword or an identifier
			return Token{Kind: KeyIdentKind(str), Value: str}
		} else if isNumber(l.ch) || l.ch == '-' {
			return Token{Kind: INT, Value: l.readNumber()}
		}
		return l.single(INVALID)
	}
}

func (l *Lexer) single(kind TokenKind) Token {
	tok := Token{Kind: kind, Value: string(l.ch)}
	l.readChar()
	return tok
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhiteSpaces() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isNumber(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// identifiers may carry a prefix: xsd:long
func isIdentChar(ch byte) bool {
	return isLetter(ch) || isNumber(ch) || ch == ':' || ch == '_' || ch == '-'
}

func (l *Lexer) keyIdentLookup() string {
	start := l.pos
	for isIdentChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	l.readChar() // digit or sign
	for isNumber(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readString reads a quoted string, resolving \" \\ \n and \t.
func (l *Lexer) readString() (string, bool) {
	l.readChar() // read start " of string
	var sb strings.Builder
	for l.ch != '"' {
		switch l.ch {
		case 0:
			return sb.String(), false
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 0:
				return sb.String(), false
			default:
				sb.WriteByte(l.ch)
			}
		default:
			sb.WriteByte(l.ch)
		}
		l.readChar()
	}
	l.readChar() // read end " of string
	return sb.String(), true
}

func (l *Lexer) readIRI() (string, bool) {
	l.readChar() // read <
	start := l.pos
	for l.ch != '>' {
		if l.ch == 0 || l.ch == ' ' {
			return l.input[start:l.pos], false
		}
		l.readChar()
	}
	iri := l.input[start:l.pos]
	l.readChar() // read >
	return iri, true
}

func KeyIdentKind(str string) TokenKind {
	switch strings.ToUpper(str) {
	case "CLEAR":
		return CLEAR
	case "PUT":
		return PUT
	case "INTERN":
		return INTERN
	case "FIND":
		return FIND
	case "VALUE":
		return VALUE
	case "REMOVE":
		return REMOVE
	case "SCAN":
		return SCAN
	case "SCANTYPE":
		return SCANTYPE
	case "PREPARE":
		return PREPARE
	case "COMMIT":
		return COMMIT
	case "ROLLBACK":
		return ROLLBACK
	case "RECOVER":
		return RECOVER
	case "SELECT":
		return SELECT
	case "STATS":
		return STATS
	case "CHECK":
		return CHECK
	case "VIEW":
		return VIEW
	case "REFRESH":
		return REFRESH
	default:
		return IDENT
	}
}
