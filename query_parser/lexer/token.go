package lex

type TokenKind int

const (
	// identifier
	IDENT TokenKind = iota

	// keywords
	CLEAR
	PUT
	INTERN
	FIND
	VALUE
	REMOVE
	SCAN
	SCANTYPE
	PREPARE
	COMMIT
	ROLLBACK
	RECOVER
	SELECT
	STATS
	CHECK
	VIEW
	REFRESH

	// literals
	INT
	STRING
	IRI

	// punctuation
	DATATYPE // ^^
	COMMA
	ASTERISK
	OPENSQUARE
	CLOSESQUARE
	OPENROUNDED
	CLOSEDROUNDED

	END
	INVALID
)

type Token struct {
	Kind  TokenKind
	Value string
}

var kindNames = map[TokenKind]string{
	IDENT:         "IDENT",
	CLEAR:         "CLEAR",
	PUT:           "PUT",
	INTERN:        "INTERN",
	FIND:          "FIND",
	VALUE:         "VALUE",
	REMOVE:        "REMOVE",
	SCAN:          "SCAN",
	SCANTYPE:      "SCANTYPE",
	PREPARE:       "PREPARE",
	COMMIT:        "COMMIT",
	ROLLBACK:      "ROLLBACK",
	RECOVER:       "RECOVER",
	SELECT:        "SELECT",
	STATS:         "STATS",
	CHECK:         "CHECK",
	VIEW:          "VIEW",
	REFRESH:       "REFRESH",
	INT:           "INT",
	STRING:        "STRING",
	IRI:           "IRI",
	DATATYPE:      "DATATYPE",
	COMMA:         "COMMA",
	ASTERISK:      "ASTERISK",
	OPENSQUARE:    "OPENSQUARE",
	CLOSESQUARE:   "CLOSESQUARE",
	OPENROUNDED:   "OPENROUNDED",
	CLOSEDROUNDED: "CLOSEDROUNDED",
	END:           "END",
	INVALID:       "INVALID",
}

func (tk TokenKind) String() string {
	if name, ok := kindNames[tk]; ok {
		return name
	}
	return "UNKNOWN"
}
