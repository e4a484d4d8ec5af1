package qdrant

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qpb "github.com/qdrant/go-client/qdrant"
)

var errInvalidPointID = errors.New("point id must be an unsigned integer or a UUID")

// pointID maps an opaque record id onto Qdrant's numeric or UUID point ids.
func pointID(id string) (*qpb.PointId, error) {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return &qpb.PointId{PointIdOptions: &qpb.PointId_Num{Num: n}}, nil
	}
	if u, err := uuid.Parse(id); err == nil {
		return &qpb.PointId{PointIdOptions: &qpb.PointId_Uuid{Uuid: u.String()}}, nil
	}
	return nil, fmt.Errorf("%w: %q", errInvalidPointID, id)
}

func idString(id *qpb.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qpb.PointId_Num:
		return strconv.FormatUint(v.Num, 10)
	case *qpb.PointId_Uuid:
		return v.Uuid
	default:
		return ""
	}
}

// Cursors are point ids tagged with their kind so they survive the round-trip
// through callers as opaque strings.
func encodeCursor(id *qpb.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qpb.PointId_Num:
		return "n:" + strconv.FormatUint(v.Num, 10)
	case *qpb.PointId_Uuid:
		return "u:" + v.Uuid
	default:
		return ""
	}
}

func decodeCursor(cursor string) (*qpb.PointId, error) {
	if cursor == "" {
		return nil, nil
	}
	kind, raw, ok := strings.Cut(cursor, ":")
	if ok {
		switch kind {
		case "n":
			n, err := strconv.ParseUint(raw, 10, 64)
			if err == nil {
				return &qpb.PointId{PointIdOptions: &qpb.PointId_Num{Num: n}}, nil
			}
		case "u":
			return &qpb.PointId{PointIdOptions: &qpb.PointId_Uuid{Uuid: raw}}, nil
		}
	}
	return nil, fmt.Errorf("malformed cursor %q", cursor)
}

func toPayload(m map[string]any) (map[string]*qpb.Value, error) {
	out := make(map[string]*qpb.Value, len(m))
	for k, v := range m {
		qv, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("payload %s: %w", k, err)
		}
		out[k] = qv
	}
	return out, nil
}

func toValue(v any) (*qpb.Value, error) {
	switch t := v.(type) {
	case nil:
		return &qpb.Value{Kind: &qpb.Value_NullValue{NullValue: qpb.NullValue_NULL_VALUE}}, nil
	case string:
		return &qpb.Value{Kind: &qpb.Value_StringValue{StringValue: t}}, nil
	case bool:
		return &qpb.Value{Kind: &qpb.Value_BoolValue{BoolValue: t}}, nil
	case int:
		return intValue(int64(t)), nil
	case int32:
		return intValue(int64(t)), nil
	case int64:
		return intValue(t), nil
	case uint32:
		return intValue(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", t)
		}
		return intValue(int64(t)), nil
	case float32:
		return doubleValue(float64(t)), nil
	case float64:
		return doubleValue(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return intValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", t.String(), err)
		}
		return doubleValue(f), nil
	case map[string]any:
		fields, err := toPayload(t)
		if err != nil {
			return nil, err
		}
		return &qpb.Value{Kind: &qpb.Value_StructValue{StructValue: &qpb.Struct{Fields: fields}}}, nil
	case map[string]string:
		fields := make(map[string]*qpb.Value, len(t))
		for k, s := range t {
			fields[k] = &qpb.Value{Kind: &qpb.Value_StringValue{StringValue: s}}
		}
		return &qpb.Value{Kind: &qpb.Value_StructValue{StructValue: &qpb.Struct{Fields: fields}}}, nil
	case []any:
		values := make([]*qpb.Value, 0, len(t))
		for i, el := range t {
			qv, err := toValue(el)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			values = append(values, qv)
		}
		return &qpb.Value{Kind: &qpb.Value_ListValue{ListValue: &qpb.ListValue{Values: values}}}, nil
	case []string:
		values := make([]*qpb.Value, 0, len(t))
		for _, s := range t {
			values = append(values, &qpb.Value{Kind: &qpb.Value_StringValue{StringValue: s}})
		}
		return &qpb.Value{Kind: &qpb.Value_ListValue{ListValue: &qpb.ListValue{Values: values}}}, nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", v)
	}
}

func intValue(i int64) *qpb.Value {
	return &qpb.Value{Kind: &qpb.Value_IntegerValue{IntegerValue: i}}
}

func doubleValue(f float64) *qpb.Value {
	return &qpb.Value{Kind: &qpb.Value_DoubleValue{DoubleValue: f}}
}

func fromPayload(m map[string]*qpb.Value) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *qpb.Value) any {
	switch k := v.GetKind().(type) {
	case *qpb.Value_StringValue:
		return k.StringValue
	case *qpb.Value_BoolValue:
		return k.BoolValue
	case *qpb.Value_IntegerValue:
		return k.IntegerValue
	case *qpb.Value_DoubleValue:
		return k.DoubleValue
	case *qpb.Value_StructValue:
		return fromPayload(k.StructValue.GetFields())
	case *qpb.Value_ListValue:
		values := k.ListValue.GetValues()
		out := make([]any, len(values))
		for i, el := range values {
			out[i] = fromValue(el)
		}
		return out
	default:
		return nil
	}
}

// denseFrom picks the dense vector out of a point's vectors: the unnamed
// vector, the named field, or the only named vector when field is "".
func denseFrom(v *qpb.VectorsOutput, field string) []float32 {
	if v == nil {
		return nil
	}
	if single := v.GetVector(); single != nil {
		return vectorData(single)
	}
	named := v.GetVectors().GetVectors()
	if field != "" {
		return vectorData(named[field])
	}
	if len(named) == 1 {
		for _, only := range named {
			return vectorData(only)
		}
	}
	return nil
}

func vectorData(v *qpb.VectorOutput) []float32 {
	if v == nil {
		return nil
	}
	if d := v.GetDense(); d != nil {
		return d.GetData()
	}
	return v.GetData() //nolint:staticcheck // older servers only fill the deprecated field
}
