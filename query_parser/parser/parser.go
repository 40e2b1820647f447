package parser

import (
	lex "ValuePool/query_parser/lexer"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrExpectedTerm    = errors.New("expected a value: <iri>, \"text\" or \"text\"^^datatype")
	ErrExpectedNumber  = errors.New("expected a number")
	ErrExpectedBracket = errors.New("expected [ or (")
	ErrTrailingInput   = errors.New("unexpected input after statement")
)

type Parser struct {
	l         *lex.Lexer
	curToken  lex.Token
	peekToken lex.Token
}

func New(l *lex.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse is a shortcut for parsing one line.
func Parse(input string) (Statement, error) {
	return New(lex.New(input)).ParseStatement()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) expect(kind lex.TokenKind) error {
	if p.curToken.Kind != kind {
		return errors.Wrapf(ErrUnexpectedToken, "expected %s, got %s (%s)", kind, p.curToken.Kind, p.curToken.Value)
	}
	return nil
}

// ParseStatement parses one statement and requires the input to end after it.
func (p *Parser) ParseStatement() (Statement, error) {
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.curToken.Kind != lex.END {
		return nil, errors.Wrapf(ErrTrailingInput, "%s (%s)", p.curToken.Kind, p.curToken.Value)
	}
	return stmt, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	kind := p.curToken.Kind
	switch kind {
	case lex.PREPARE, lex.COMMIT, lex.ROLLBACK, lex.RECOVER, lex.STATS, lex.CHECK, lex.REFRESH:
		p.nextToken()
		return bare(kind), nil
	case lex.CLEAR:
		return p.parseClear()
	case lex.PUT:
		return p.parsePut()
	case lex.INTERN:
		p.nextToken()
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &InternStmt{Value: t}, nil
	case lex.FIND:
		p.nextToken()
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &FindStmt{Value: t}, nil
	case lex.VALUE:
		p.nextToken()
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		return &ValueStmt{Node: node}, nil
	case lex.REMOVE:
		p.nextToken()
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		return &RemoveStmt{Node: node}, nil
	case lex.SCAN:
		return p.parseScan()
	case lex.SCANTYPE:
		return p.parseScanType()
	case lex.SELECT:
		p.nextToken()
		n, err := p.parsePhase()
		if err != nil {
			return nil, err
		}
		return &SelectPhaseStmt{Phase: n}, nil
	case lex.VIEW:
		return p.parseView()
	}
	return nil, errors.Wrapf(ErrUnexpectedToken, "%s (%s)", p.curToken.Kind, p.curToken.Value)
}

func bare(kind lex.TokenKind) Statement {
	switch kind {
	case lex.PREPARE:
		return &PrepareStmt{}
	case lex.COMMIT:
		return &CommitStmt{}
	case lex.ROLLBACK:
		return &RollbackStmt{}
	case lex.RECOVER:
		return &RecoverStmt{}
	case lex.STATS:
		return &StatsStmt{}
	case lex.CHECK:
		return &CheckStmt{}
	}
	return &RefreshStmt{}
}

// --- CLEAR ---
func (p *Parser) parseClear() (*ClearStmt, error) {
	p.nextToken()
	if p.curToken.Kind != lex.INT {
		return &ClearStmt{}, nil
	}
	n, err := p.parsePhase()
	if err != nil {
		return nil, err
	}
	return &ClearStmt{Phase: n}, nil
}

// --- PUT ---
func (p *Parser) parsePut() (*PutStmt, error) {
	p.nextToken()
	stmt := &PutStmt{}
	if p.curToken.Kind == lex.INT {
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		stmt.Node = node
	}
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	stmt.Value = t
	return stmt, nil
}

// --- SCAN ---
func (p *Parser) parseScan() (*ScanStmt, error) {
	p.nextToken()
	if p.curToken.Kind == lex.ASTERISK || p.curToken.Kind == lex.END {
		if p.curToken.Kind == lex.ASTERISK {
			p.nextToken()
		}
		return &ScanStmt{}, nil
	}

	stmt := &ScanStmt{}
	switch p.curToken.Kind {
	case lex.OPENSQUARE:
		stmt.LowInclusive = true
	case lex.OPENROUNDED:
	default:
		return nil, errors.Wrapf(ErrExpectedBracket, "got %s (%s)", p.curToken.Kind, p.curToken.Value)
	}
	p.nextToken()

	low, err := p.parseBound()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lex.COMMA); err != nil {
		return nil, err
	}
	p.nextToken()
	high, err := p.parseBound()
	if err != nil {
		return nil, err
	}

	switch p.curToken.Kind {
	case lex.CLOSESQUARE:
		stmt.HighInclusive = true
	case lex.CLOSEDROUNDED:
	default:
		return nil, errors.Wrapf(ErrUnexpectedToken, "expected ] or ), got %s (%s)", p.curToken.Kind, p.curToken.Value)
	}
	p.nextToken()
	stmt.Low, stmt.High = low, high
	return stmt, nil
}

// parseBound reads a term, or * for an open end.
func (p *Parser) parseBound() (*Term, error) {
	if p.curToken.Kind == lex.ASTERISK {
		p.nextToken()
		return nil, nil
	}
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- SCANTYPE ---
func (p *Parser) parseScanType() (*ScanTypeStmt, error) {
	p.nextToken()
	var stmt ScanTypeStmt
	switch p.curToken.Kind {
	case lex.ASTERISK:
		stmt.Category = "any"
	case lex.IDENT:
		stmt.Category = strings.ToLower(p.curToken.Value)
	default:
		return nil, errors.Wrapf(ErrUnexpectedToken, "expected a category, got %s (%s)", p.curToken.Kind, p.curToken.Value)
	}
	p.nextToken()

	switch p.curToken.Kind {
	case lex.IDENT, lex.IRI:
		stmt.Datatype = p.curToken.Value
		p.nextToken()
	}
	return &stmt, nil
}

// --- VIEW ---
func (p *Parser) parseView() (*ViewStmt, error) {
	p.nextToken()
	if p.curToken.Kind == lex.END {
		return &ViewStmt{}, nil
	}
	switch p.curToken.Kind {
	case lex.FIND, lex.VALUE, lex.SCAN, lex.SCANTYPE:
	default:
		return nil, errors.Wrapf(ErrUnexpectedToken, "view only runs find, value, scan and scantype, got %s", p.curToken.Kind)
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ViewStmt{Stmt: stmt}, nil
}

// parseTerm reads <iri>, "text" or "text"^^datatype.
func (p *Parser) parseTerm() (Term, error) {
	switch p.curToken.Kind {
	case lex.IRI:
		t := Term{Kind: TermURI, Text: p.curToken.Value}
		p.nextToken()
		return t, nil
	case lex.STRING:
		t := Term{Kind: TermLiteral, Text: p.curToken.Value}
		p.nextToken()
		if p.curToken.Kind != lex.DATATYPE {
			return t, nil
		}
		p.nextToken()
		if p.curToken.Kind != lex.IDENT && p.curToken.Kind != lex.IRI {
			return Term{}, errors.Wrapf(ErrUnexpectedToken, "expected a datatype after ^^, got %s", p.curToken.Kind)
		}
		t.Kind, t.Datatype = TermTyped, p.curToken.Value
		p.nextToken()
		return t, nil
	}
	return Term{}, errors.Wrapf(ErrExpectedTerm, "got %s (%s)", p.curToken.Kind, p.curToken.Value)
}

func (p *Parser) parseNode() (int64, error) {
	if p.curToken.Kind != lex.INT {
		return 0, errors.Wrapf(ErrExpectedNumber, "got %s (%s)", p.curToken.Kind, p.curToken.Value)
	}
	n, err := strconv.ParseInt(p.curToken.Value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrExpectedNumber, "%s", p.curToken.Value)
	}
	p.nextToken()
	return n, nil
}

func (p *Parser) parsePhase() (uint32, error) {
	if p.curToken.Kind != lex.INT {
		return 0, errors.Wrapf(ErrExpectedNumber, "got %s (%s)", p.curToken.Kind, p.curToken.Value)
	}
	n, err := strconv.ParseUint(p.curToken.Value, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrExpectedNumber, "phase %s", p.curToken.Value)
	}
	p.nextToken()
	return uint32(n), nil
}
