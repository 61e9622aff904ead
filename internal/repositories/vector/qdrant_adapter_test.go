package vector

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------
// derivePointId
// --------------------------------------------------------------------

func TestDerivePointIdNumericKeyPassesThrough(t *testing.T) {
	id := derivePointId("42")
	num, ok := id.GetPointIdOptions().(*qdrant.PointId_Num)
	require.True(t, ok)
	assert.Equal(t, uint64(42), num.Num)
}

func TestDerivePointIdStringKeyBecomesUuid(t *testing.T) {
	id := derivePointId("rec-abc")
	u, ok := id.GetPointIdOptions().(*qdrant.PointId_Uuid)
	require.True(t, ok)
	assert.Len(t, u.Uuid, 36)
}

func TestDerivePointIdIsDeterministic(t *testing.T) {
	first := derivePointId("charge_9f8e")
	second := derivePointId("charge_9f8e")
	assert.Equal(t, first.GetUuid(), second.GetUuid())

	other := derivePointId("charge_9f8f")
	assert.NotEqual(t, first.GetUuid(), other.GetUuid())
}

func TestDerivePointIdNegativeNumberIsNotNumeric(t *testing.T) {
	id := derivePointId("-7")
	_, ok := id.GetPointIdOptions().(*qdrant.PointId_Uuid)
	assert.True(t, ok)
}

// --------------------------------------------------------------------
// adaptToPayloadValue
// --------------------------------------------------------------------

func TestAdaptString(t *testing.T) {
	v := adaptToPayloadValue("hello")
	assert.Equal(t, "hello", v.GetStringValue())
}

func TestAdaptIntegers(t *testing.T) {
	v := adaptToPayloadValue(42)
	assert.Equal(t, int64(42), v.GetIntegerValue())

	v = adaptToPayloadValue(int64(999))
	assert.Equal(t, int64(999), v.GetIntegerValue())
}

func TestAdaptFloats(t *testing.T) {
	v := adaptToPayloadValue(float64(3.14))
	assert.Equal(t, 3.14, v.GetDoubleValue())

	v = adaptToPayloadValue(float32(1.5))
	assert.Equal(t, 1.5, v.GetDoubleValue())
}

func TestAdaptBool(t *testing.T) {
	v := adaptToPayloadValue(true)
	assert.True(t, v.GetBoolValue())
	v = adaptToPayloadValue(false)
	assert.False(t, v.GetBoolValue())
}

func TestAdaptStringSlice(t *testing.T) {
	v := adaptToPayloadValue([]string{"x", "y"})
	values := v.GetListValue().GetValues()
	require.Len(t, values, 2)
	assert.Equal(t, "x", values[0].GetStringValue())
	assert.Equal(t, "y", values[1].GetStringValue())
}

func TestAdaptInterfaceSlice(t *testing.T) {
	v := adaptToPayloadValue([]interface{}{"a", float64(2)})
	values := v.GetListValue().GetValues()
	require.Len(t, values, 2)
	assert.Equal(t, "a", values[0].GetStringValue())
	assert.Equal(t, 2.0, values[1].GetDoubleValue())
}

func TestAdaptNestedMap(t *testing.T) {
	v := adaptToPayloadValue(map[string]interface{}{"inner": "value"})
	fields := v.GetStructValue().GetFields()
	require.Contains(t, fields, "inner")
	assert.Equal(t, "value", fields["inner"].GetStringValue())
}

func TestAdaptNil(t *testing.T) {
	v := adaptToPayloadValue(nil)
	assert.Equal(t, qdrant.NullValue_NULL_VALUE, v.GetNullValue())
}
