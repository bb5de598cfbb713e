package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindDiscrimination(t *testing.T) {
	assert.Equal(t, KindUnit, Unit().Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindI8, I8(-1).Kind())
	assert.Equal(t, KindU64, U64(1).Kind())
	assert.Equal(t, KindF32, F32(1.5).Kind())
	assert.Equal(t, KindChar, Char('x').Kind())
	assert.Equal(t, KindString, String("x").Kind())
	assert.Equal(t, KindBytes, Bytes([]byte{1}).Kind())
	assert.Equal(t, KindSequence, Sequence(nil).Kind())
	assert.Equal(t, KindMap, Map(nil).Kind())
}

func TestWidthIsPreserved(t *testing.T) {
	// Same numeric payload, different declared widths: never equal.
	assert.False(t, I32(7).Equal(I64(7)))
	assert.False(t, I64(7).Equal(U64(7)))
	assert.True(t, I64(7).Equal(I64(7)))

	assert.True(t, I32(7).IsSigned())
	assert.False(t, I32(7).IsUnsigned())
	assert.True(t, U16(7).IsUnsigned())
}

func TestFloatBitPatternEquality(t *testing.T) {
	assert.True(t, F64(math.NaN()).Equal(F64(math.NaN())))
	assert.True(t, F32(float32(math.NaN())).Equal(F32(float32(math.NaN()))))

	// Positive and negative zero differ at the bit level.
	negZero := math.Copysign(0, -1)
	assert.False(t, F64(0).Equal(F64(negZero)))

	assert.Equal(t, 1.5, F64(1.5).Float64())
	assert.Equal(t, float32(1.5), F32(1.5).Float32())
}

func TestStructuralEquality(t *testing.T) {
	a := Map([]Pair{
		{Key: String("x"), Val: Sequence([]Value{I64(1), Unit()})},
		{Key: String("y"), Val: Bytes([]byte{0xde, 0xad})},
	})
	b := Map([]Pair{
		{Key: String("x"), Val: Sequence([]Value{I64(1), Unit()})},
		{Key: String("y"), Val: Bytes([]byte{0xde, 0xad})},
	})
	assert.True(t, a.Equal(b))

	// Map entries are ordered; swapping them changes the value.
	swapped := Map([]Pair{b.Pairs()[1], b.Pairs()[0]})
	assert.False(t, a.Equal(swapped))
}

func TestMapAllowsDuplicateAndNonStringKeys(t *testing.T) {
	m := Map([]Pair{
		{Key: I32(1), Val: String("first")},
		{Key: I32(1), Val: String("second")},
	})
	assert.Len(t, m.Pairs(), 2)
	assert.Equal(t, KindI32, m.Pairs()[0].Key.Kind())
}

func TestDebugRendering(t *testing.T) {
	assert.Equal(t, "unit", Unit().String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "i32(1)", I32(1).String())
	assert.Equal(t, "u64(18446744073709551615)", U64(math.MaxUint64).String())
	assert.Equal(t, `"hi"`, String("hi").String())
	assert.Equal(t, "bytes(3)", Bytes([]byte{1, 2, 3}).String())
	assert.Equal(t, "[i64(1), unit]", Sequence([]Value{I64(1), Unit()}).String())
	assert.Equal(t, `{"k": f64(0.5)}`, Map([]Pair{{Key: String("k"), Val: F64(0.5)}}).String())
}
