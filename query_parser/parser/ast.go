package parser

// Statement is a generic interface for all statements
type Statement interface{}

type TermKind int

const (
	TermURI TermKind = iota
	TermLiteral
	TermTyped
)

func (k TermKind) String() string {
	switch k {
	case TermURI:
		return "uri"
	case TermLiteral:
		return "literal"
	case TermTyped:
		return "typed"
	}
	return "unknown"
}

// Term is a value as written: <iri>, "text" or "text"^^datatype.
type Term struct {
	Kind     TermKind
	Text     string
	Datatype string // as written, xsd:long or a full IRI
}

// CLEAR [phase]
type ClearStmt struct {
	Phase uint32
}

// PUT [node] term, node 0 lets the pool allocate
type PutStmt struct {
	Node  int64
	Value Term
}

// INTERN term
type InternStmt struct {
	Value Term
}

// FIND term
type FindStmt struct {
	Value Term
}

// VALUE node
type ValueStmt struct {
	Node int64
}

// REMOVE node
type RemoveStmt struct {
	Node int64
}

// SCAN *  or  SCAN [low, high)  with * for an open end
type ScanStmt struct {
	Low, High                   *Term
	LowInclusive, HighInclusive bool
}

// SCANTYPE category [datatype]
type ScanTypeStmt struct {
	Category string
	Datatype string
}

type PrepareStmt struct{}

type CommitStmt struct{}

type RollbackStmt struct{}

type RecoverStmt struct{}

// SELECT phase
type SelectPhaseStmt struct {
	Phase uint32
}

type StatsStmt struct{}

type CheckStmt struct{}

// VIEW statement runs a read statement against the read-only view
type ViewStmt struct {
	Stmt Statement
}

type RefreshStmt struct{}
