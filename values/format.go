package values

import (
	"ValuePool/types"
	"fmt"
	"strconv"
)

// Format renders a value in N-Triples style: <uri>, "text" or "text"^^<datatype>.
func Format(v types.Value) string {
	switch t := v.(type) {
	case nil:
		return "_:blank"
	case URI:
		return "<" + t.text + ">"
	case Literal:
		return strconv.Quote(t.text)
	case String:
		return strconv.Quote(t.text) + "^^<" + XSDNamespace + "string>"
	case Double:
		return strconv.Quote(strconv.FormatFloat(t.f, 'g', -1, 64)) + "^^<" + XSDNamespace + "double>"
	case Decimal:
		return strconv.Quote(t.Lexical()) + "^^<" + t.DatatypeURI() + ">"
	default:
		return fmt.Sprintf("%s(%d/%d)%x", v.Category(), v.TypeID(), v.SubtypeID(), v.Bytes())
	}
}
