package store

import (
	"fmt"
	"time"
)

// Attribute is the coercer pair a Record applies when reading (ToType) and
// writing (FromType) one of its properties. Deliberately mechanical, but
// every attribute-backed Get/Set on a Record runs through it.
type Attribute struct {
	ToType   func(raw any) (any, error)
	FromType func(value any) (any, error)
}

// StringAttribute coerces through fmt.Sprint on read when raw isn't
// already a string.
func StringAttribute() *Attribute {
	return &Attribute{
		ToType: func(raw any) (any, error) {
			if raw == nil {
				return "", nil
			}
			if s, ok := raw.(string); ok {
				return s, nil
			}
			return fmt.Sprint(raw), nil
		},
		FromType: func(value any) (any, error) { return value, nil },
	}
}

// IntAttribute coerces common numeric encodings (float64, as JSON
// unmarshaling produces) to int.
func IntAttribute() *Attribute {
	return &Attribute{
		ToType: func(raw any) (any, error) {
			switch v := raw.(type) {
			case nil:
				return 0, nil
			case int:
				return v, nil
			case int64:
				return int(v), nil
			case float64:
				return int(v), nil
			default:
				return nil, fmt.Errorf("store: cannot coerce %T to int", raw)
			}
		},
		FromType: func(value any) (any, error) { return value, nil },
	}
}

// FloatAttribute coerces to float64.
func FloatAttribute() *Attribute {
	return &Attribute{
		ToType: func(raw any) (any, error) {
			switch v := raw.(type) {
			case nil:
				return 0.0, nil
			case float64:
				return v, nil
			case int:
				return float64(v), nil
			default:
				return nil, fmt.Errorf("store: cannot coerce %T to float64", raw)
			}
		},
		FromType: func(value any) (any, error) { return value, nil },
	}
}

// BoolAttribute passes booleans through, treating nil as false.
func BoolAttribute() *Attribute {
	return &Attribute{
		ToType: func(raw any) (any, error) {
			if raw == nil {
				return false, nil
			}
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("store: cannot coerce %T to bool", raw)
			}
			return b, nil
		},
		FromType: func(value any) (any, error) { return value, nil },
	}
}

// TimeAttribute round-trips time.Time through RFC3339 strings, the
// portable wire shape a hash-based store can hold without a custom type.
func TimeAttribute() *Attribute {
	return &Attribute{
		ToType: func(raw any) (any, error) {
			switch v := raw.(type) {
			case nil:
				return time.Time{}, nil
			case time.Time:
				return v, nil
			case string:
				return time.Parse(time.RFC3339, v)
			default:
				return nil, fmt.Errorf("store: cannot coerce %T to time.Time", raw)
			}
		},
		FromType: func(value any) (any, error) {
			t, ok := value.(time.Time)
			if !ok {
				return nil, fmt.Errorf("store: expected time.Time, got %T", value)
			}
			return t.Format(time.RFC3339), nil
		},
	}
}

// ListAttribute coerces to []any, treating nil as an empty list.
func ListAttribute() *Attribute {
	return &Attribute{
		ToType: func(raw any) (any, error) {
			if raw == nil {
				return []any{}, nil
			}
			switch v := raw.(type) {
			case []any:
				return v, nil
			case []string:
				out := make([]any, len(v))
				for i, s := range v {
					out[i] = s
				}
				return out, nil
			default:
				return nil, fmt.Errorf("store: cannot coerce %T to list", raw)
			}
		},
		FromType: func(value any) (any, error) { return value, nil },
	}
}
