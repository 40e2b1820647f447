package values

import (
	"ValuePool/types"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var ErrUnknownType = errors.New("unknown datatype")

// Registry is the ValueFactory for the types in this package.
type Registry struct {
	byURI map[string]typeRef
}

type typeRef struct {
	typeID  uint8
	subtype uint8
}

func NewRegistry() *Registry {
	r := &Registry{byURI: make(map[string]typeRef)}
	r.byURI[XSDNamespace+"string"] = typeRef{TypeIDString, 0}
	r.byURI[XSDNamespace+"double"] = typeRef{TypeIDDouble, 0}
	for sub, info := range decimalSubtypes {
		r.byURI[XSDNamespace+info.name] = typeRef{TypeIDDecimal, uint8(sub)}
	}
	return r
}

// TypeID resolves a datatype URI. Every member of the decimal family resolves to the decimal type id.
func (r *Registry) TypeID(typeURI string) (uint8, bool) {
	ref, ok := r.byURI[typeURI]
	return ref.typeID, ok
}

func (r *Registry) Comparator(category types.TypeCategory, typeID uint8) (types.Comparator, error) {
	switch category {
	case types.CategoryURI, types.CategoryUntypedLiteral:
		return lexical, nil
	case types.CategoryTypedLiteral:
		switch typeID {
		case TypeIDString, TypeIDDouble:
			return lexical, nil
		case TypeIDDecimal:
			return decimal, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownType, "category %s type %d", category, typeID)
}

func (r *Registry) NewValue(category types.TypeCategory, typeID, subtypeID uint8, data []byte) (types.Value, error) {
	switch category {
	case types.CategoryURI:
		return NewURI(string(data)), nil
	case types.CategoryUntypedLiteral:
		return NewLiteral(string(data)), nil
	case types.CategoryTypedLiteral:
		switch typeID {
		case TypeIDString:
			return NewString(string(data)), nil
		case TypeIDDouble:
			return decodeDouble(data)
		case TypeIDDecimal:
			return decodeDecimal(data, subtypeID)
		}
	}
	return nil, errors.Wrapf(ErrUnknownType, "category %s type %d", category, typeID)
}

// NewTyped builds a typed literal from its lexical form and datatype URI.
func (r *Registry) NewTyped(lexical, datatypeURI string) (types.Value, error) {
	ref, ok := r.byURI[datatypeURI]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%s", datatypeURI)
	}
	switch ref.typeID {
	case TypeIDString:
		return NewString(lexical), nil
	case TypeIDDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(lexical), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidLexical, "%q as xsd:double", lexical)
		}
		return NewDouble(f), nil
	default:
		return NewDecimal(lexical, ref.subtype)
	}
}

// ExpandDatatype accepts "xsd:long" style names as well as full URIs.
func ExpandDatatype(name string) string {
	if rest, ok := strings.CutPrefix(name, "xsd:"); ok {
		return XSDNamespace + rest
	}
	return name
}
