package vector

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// pointIdNamespace seeds uuid v5 derivation for non-numeric primary keys.
var pointIdNamespace = uuid.MustParse("8c2f6d7e-4b1a-4f3e-9d5c-2a7b8e1f0c3d")

// derivePointId maps a primary key onto a deterministic qdrant point ID.
// Numeric keys pass through as numeric IDs; everything else becomes a
// uuid v5 of the key, so the same key always lands on the same point.
func derivePointId(key string) *qdrant.PointId {
	if num, err := strconv.ParseUint(key, 10, 64); err == nil {
		return &qdrant.PointId{
			PointIdOptions: &qdrant.PointId_Num{Num: num},
		}
	}
	return &qdrant.PointId{
		PointIdOptions: &qdrant.PointId_Uuid{Uuid: uuid.NewSHA1(pointIdNamespace, []byte(key)).String()},
	}
}

func adaptToPayloadValue(value interface{}) *qdrant.Value {
	switch v := value.(type) {
	case string:
		return &qdrant.Value{
			Kind: &qdrant.Value_StringValue{StringValue: v},
		}
	case int:
		return &qdrant.Value{
			Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)},
		}
	case int64:
		return &qdrant.Value{
			Kind: &qdrant.Value_IntegerValue{IntegerValue: v},
		}
	case float32:
		return &qdrant.Value{
			Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(v)},
		}
	case float64:
		return &qdrant.Value{
			Kind: &qdrant.Value_DoubleValue{DoubleValue: v},
		}
	case bool:
		return &qdrant.Value{
			Kind: &qdrant.Value_BoolValue{BoolValue: v},
		}
	case []string:
		listValues := &qdrant.ListValue{}
		for _, item := range v {
			listValues.Values = append(listValues.Values, &qdrant.Value{
				Kind: &qdrant.Value_StringValue{StringValue: item},
			})
		}
		return &qdrant.Value{
			Kind: &qdrant.Value_ListValue{ListValue: listValues},
		}
	case []interface{}:
		listValues := &qdrant.ListValue{}
		for _, item := range v {
			listValues.Values = append(listValues.Values, adaptToPayloadValue(item))
		}
		return &qdrant.Value{
			Kind: &qdrant.Value_ListValue{ListValue: listValues},
		}
	case map[string]interface{}:
		fields := make(map[string]*qdrant.Value, len(v))
		for key, item := range v {
			fields[key] = adaptToPayloadValue(item)
		}
		return &qdrant.Value{
			Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: fields}},
		}
	case nil:
		return &qdrant.Value{
			Kind: &qdrant.Value_NullValue{NullValue: qdrant.NullValue_NULL_VALUE},
		}
	default:
		return &qdrant.Value{
			Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", v)},
		}
	}
}
