package values

import (
	"ValuePool/types"
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Subtypes of the decimal family.
const (
	SubtypeDecimal uint8 = iota
	SubtypeInteger
	SubtypeLong
	SubtypeInt
	SubtypeShort
	SubtypeByte
)

var decimalSubtypes = []struct {
	name string
	bits int // 0 for the string encoded subtypes
}{
	SubtypeDecimal: {"decimal", 0},
	SubtypeInteger: {"integer", 0},
	SubtypeLong:    {"long", 64},
	SubtypeInt:     {"int", 32},
	SubtypeShort:   {"short", 16},
	SubtypeByte:    {"byte", 8},
}

// Decimal is a member of the xsd:decimal family. decimal and integer keep their canonical
// lexical form, the bounded integer types are stored as 8 byte order preserving integers.
type Decimal struct {
	subtype uint8
	lexical string
	n       int64
}

// NewDecimal parses lexical as the decimal subtype named by subtype.
func NewDecimal(lexical string, subtype uint8) (Decimal, error) {
	if int(subtype) >= len(decimalSubtypes) {
		return Decimal{}, errors.Newf("unknown decimal subtype %d", subtype)
	}
	bits := decimalSubtypes[subtype].bits
	if bits > 0 {
		n, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(lexical), "+"), 10, bits)
		if err != nil {
			return Decimal{}, errors.Wrapf(ErrInvalidLexical, "%q as xsd:%s", lexical, decimalSubtypes[subtype].name)
		}
		return Decimal{subtype: subtype, n: n}, nil
	}
	canon, ok := canonicalDecimal(lexical, subtype == SubtypeInteger)
	if !ok {
		return Decimal{}, errors.Wrapf(ErrInvalidLexical, "%q as xsd:%s", lexical, decimalSubtypes[subtype].name)
	}
	return Decimal{subtype: subtype, lexical: canon}, nil
}

// NewLong builds an xsd:long directly.
func NewLong(n int64) Decimal { return Decimal{subtype: SubtypeLong, n: n} }

func (d Decimal) Category() types.TypeCategory { return types.CategoryTypedLiteral }
func (d Decimal) TypeID() uint8                { return TypeIDDecimal }
func (d Decimal) SubtypeID() uint8             { return d.subtype }
func (d Decimal) Comparator() types.Comparator { return decimal }

func (d Decimal) Bytes() []byte {
	if decimalSubtypes[d.subtype].bits == 0 {
		return []byte(d.lexical)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(d.n)^(1<<63))
	return buf
}

func (d Decimal) Lexical() string {
	if decimalSubtypes[d.subtype].bits == 0 {
		return d.lexical
	}
	return strconv.FormatInt(d.n, 10)
}

func (d Decimal) DatatypeURI() string {
	return XSDNamespace + decimalSubtypes[d.subtype].name
}

func decodeDecimal(data []byte, subtype uint8) (Decimal, error) {
	if int(subtype) >= len(decimalSubtypes) {
		return Decimal{}, errors.Newf("unknown decimal subtype %d", subtype)
	}
	if decimalSubtypes[subtype].bits == 0 {
		return Decimal{subtype: subtype, lexical: string(data)}, nil
	}
	if len(data) != 8 {
		return Decimal{}, errors.Wrapf(ErrInvalidLexical, "xsd:%s encoding of %d bytes", decimalSubtypes[subtype].name, len(data))
	}
	return Decimal{subtype: subtype, n: int64(binary.BigEndian.Uint64(data) ^ (1 << 63))}, nil
}

func decodeRat(data []byte, subtype uint8) (*big.Rat, error) {
	d, err := decodeDecimal(data, subtype)
	if err != nil {
		return nil, err
	}
	r, ok := new(big.Rat).SetString(d.Lexical())
	if !ok {
		return nil, errors.Wrapf(ErrInvalidLexical, "%q", d.Lexical())
	}
	return r, nil
}

// canonicalDecimal validates an xsd:decimal lexical form and strips redundant signs and zeros.
func canonicalDecimal(s string, integer bool) (string, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if hasDot && integer {
		return "", false
	}
	if intPart == "" && fracPart == "" {
		return "", false
	}
	for _, part := range []string{intPart, fracPart} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return "", false
			}
		}
	}
	intPart = strings.TrimLeft(intPart, "0")
	fracPart = strings.TrimRight(fracPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out, true
}
