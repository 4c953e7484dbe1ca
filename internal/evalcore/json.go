package evalcore

import "encoding/json"

// MarshalJSON renders Value as a native JSON scalar (string/number/
// bool/null) rather than a {kind,value} envelope: spec §6's HTTP
// agent contract is plain JSON, and row values come straight from
// document attributes/text, so every Kind maps onto one of JSON's
// scalar types directly. The per-Kind switch is the same shape as the
// teacher's marshalValue helper, aimed at json.RawMessage output
// instead of a tagged struct.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}
