package values

import (
	"ValuePool/types"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

/*
Concrete value encodings handed to the pool.
URIs and untyped literals are stored as their UTF-8 text. Typed literals carry a type id from
the registry and, for the decimal family, a subtype naming the XSD datatype the value was written with.
*/

const XSDNamespace = "http://www.w3.org/2001/XMLSchema#"

// Type ids of the supported typed literals.
const (
	TypeIDNone    uint8 = 0
	TypeIDString  uint8 = 1
	TypeIDDouble  uint8 = 2
	TypeIDDecimal uint8 = 3
)

var ErrInvalidLexical = errors.New("invalid lexical form")

// URI is an absolute or relative IRI reference.
type URI struct {
	text string
}

func NewURI(text string) URI { return URI{text: text} }

func (u URI) Category() types.TypeCategory { return types.CategoryURI }
func (u URI) TypeID() uint8                { return TypeIDNone }
func (u URI) SubtypeID() uint8             { return 0 }
func (u URI) Bytes() []byte                { return []byte(u.text) }
func (u URI) Comparator() types.Comparator { return lexical }
func (u URI) String() string               { return u.text }

// Literal is an untyped (plain) literal.
type Literal struct {
	text string
}

func NewLiteral(text string) Literal { return Literal{text: text} }

func (l Literal) Category() types.TypeCategory { return types.CategoryUntypedLiteral }
func (l Literal) TypeID() uint8                { return TypeIDNone }
func (l Literal) SubtypeID() uint8             { return 0 }
func (l Literal) Bytes() []byte                { return []byte(l.text) }
func (l Literal) Comparator() types.Comparator { return lexical }
func (l Literal) Lexical() string              { return l.text }

// String is an xsd:string typed literal.
type String struct {
	text string
}

func NewString(text string) String { return String{text: text} }

func (s String) Category() types.TypeCategory { return types.CategoryTypedLiteral }
func (s String) TypeID() uint8                { return TypeIDString }
func (s String) SubtypeID() uint8             { return 0 }
func (s String) Bytes() []byte                { return []byte(s.text) }
func (s String) Comparator() types.Comparator { return lexical }
func (s String) Lexical() string              { return s.text }

// Double is an xsd:double typed literal, encoded so that byte order is numeric order.
type Double struct {
	f float64
}

func NewDouble(f float64) Double { return Double{f: f} }

func (d Double) Category() types.TypeCategory { return types.CategoryTypedLiteral }
func (d Double) TypeID() uint8                { return TypeIDDouble }
func (d Double) SubtypeID() uint8             { return 0 }
func (d Double) Comparator() types.Comparator { return lexical }
func (d Double) Float() float64               { return d.f }

func (d Double) Bytes() []byte {
	bits := math.Float64bits(d.f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf
}

func decodeDouble(data []byte) (Double, error) {
	if len(data) != 8 {
		return Double{}, errors.Wrapf(ErrInvalidLexical, "double encoding of %d bytes", len(data))
	}
	bits := binary.BigEndian.Uint64(data)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return Double{f: math.Float64frombits(bits)}, nil
}
