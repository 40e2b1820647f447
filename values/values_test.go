package values

import (
	"ValuePool/types"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleEncodingPreservesOrder(t *testing.T) {
	nums := []float64{-1e300, -2.5, -1, -0.0001, 0, 0.0001, 1, 2.5, 1e300}
	for i := 1; i < len(nums); i++ {
		a := NewDouble(nums[i-1]).Bytes()
		b := NewDouble(nums[i]).Bytes()
		assert.Negative(t, bytes.Compare(a, b), "%v should sort before %v", nums[i-1], nums[i])
	}

	d, err := decodeDouble(NewDouble(-2.5).Bytes())
	require.NoError(t, err)
	assert.Equal(t, -2.5, d.Float())
}

func TestCanonicalDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.50", "1.5", true},
		{"+0012.3400", "12.34", true},
		{"-0.0", "0", true},
		{".5", "0.5", true},
		{"7.", "7", true},
		{"1e3", "", false},
		{"", "", false},
		{"-", "", false},
		{"1/2", "", false},
	}
	for _, tt := range tests {
		got, ok := canonicalDecimal(tt.in, false)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, ok := canonicalDecimal("1.5", true)
	assert.False(t, ok, "integer subtype rejects fractions")
}

func TestDecimalFamilyComparesNumerically(t *testing.T) {
	half, err := NewDecimal("0.5", SubtypeDecimal)
	require.NoError(t, err)
	one, err := NewDecimal("1", SubtypeInteger)
	require.NoError(t, err)
	minus, err := NewDecimal("-3", SubtypeShort)
	require.NoError(t, err)
	big := NewLong(1 << 40)

	cmp := half.Comparator()
	assert.Negative(t, cmp.Compare(half.Bytes(), half.SubtypeID(), one.Bytes(), one.SubtypeID()))
	assert.Negative(t, cmp.Compare(minus.Bytes(), minus.SubtypeID(), half.Bytes(), half.SubtypeID()))
	assert.Positive(t, cmp.Compare(big.Bytes(), big.SubtypeID(), one.Bytes(), one.SubtypeID()))

	// equal numbers of different subtypes are distinct values ordered by subtype
	oneLong := NewLong(1)
	assert.Negative(t, cmp.Compare(one.Bytes(), one.SubtypeID(), oneLong.Bytes(), oneLong.SubtypeID()))
	assert.Zero(t, cmp.Compare(oneLong.Bytes(), SubtypeLong, oneLong.Bytes(), SubtypeLong))

	_, ok := cmp.ComparePrefix(half.Bytes(), one.Bytes(), 1)
	assert.False(t, ok)
}

func TestLexicalComparePrefix(t *testing.T) {
	cmp := lexical
	node := []byte("abcdefgh")

	c, ok := cmp.ComparePrefix([]byte("abd"), node[:4], len(node))
	require.True(t, ok)
	assert.Positive(t, c)

	c, ok = cmp.ComparePrefix([]byte("ab"), node[:4], len(node))
	require.True(t, ok)
	assert.Negative(t, c)

	_, ok = cmp.ComparePrefix([]byte("abcdzzzz"), node[:4], len(node))
	assert.False(t, ok, "a matching prefix cannot decide")
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := NewRegistry()
	long, err := reg.NewTyped("42", ExpandDatatype("xsd:long"))
	require.NoError(t, err)
	dbl, err := reg.NewTyped("2.25", XSDNamespace+"double")
	require.NoError(t, err)

	for _, v := range []types.Value{NewURI("http://example.org/a"), NewLiteral("alpha"), NewString("s"), long, dbl} {
		back, err := reg.NewValue(v.Category(), v.TypeID(), v.SubtypeID(), v.Bytes())
		require.NoError(t, err)
		assert.Equal(t, v.Bytes(), back.Bytes())
		assert.Equal(t, Format(v), Format(back))
	}

	id, ok := reg.TypeID(XSDNamespace + "short")
	assert.True(t, ok)
	assert.Equal(t, TypeIDDecimal, id)

	_, err = reg.NewTyped("x", "http://example.org/unknown")
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = reg.NewTyped("70000", ExpandDatatype("xsd:short"))
	assert.ErrorIs(t, err, ErrInvalidLexical)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "<http://example.org/a>", Format(NewURI("http://example.org/a")))
	assert.Equal(t, `"alpha"`, Format(NewLiteral("alpha")))
	assert.Equal(t, `"7"^^<http://www.w3.org/2001/XMLSchema#long>`, Format(NewLong(7)))
	assert.Equal(t, "_:blank", Format(nil))
}
