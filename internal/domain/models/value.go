package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// NullFloat is a number that may be missing. Missing values propagate
// through every computation and are never read as zero.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some wraps a present value. NaN and infinities are treated as missing.
func Some(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Missing is the absent value.
func Missing() NullFloat { return NullFloat{} }

// Ptr returns nil for a missing value.
func (n NullFloat) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("null float: %w", err)
	}
	*n = Some(v)
	return nil
}

// Scan implements sql.Scanner so nullable ClickHouse columns map directly.
func (n *NullFloat) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = NullFloat{}
	case float64:
		*n = Some(v)
	case float32:
		*n = Some(float64(v))
	case *float64:
		if v == nil {
			*n = NullFloat{}
		} else {
			*n = Some(*v)
		}
	case int64:
		*n = Some(float64(v))
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("null float: unsupported scan type %T", src)
	}
	return nil
}

func (n *NullFloat) parse(s string) error {
	if s == "" {
		*n = NullFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("null float: %w", err)
	}
	*n = Some(v)
	return nil
}

// Value implements driver.Valuer.
func (n NullFloat) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// Mean averages the inputs, missing if any input is missing.
func Mean(vals ...NullFloat) NullFloat {
	if len(vals) == 0 {
		return NullFloat{}
	}
	var sum float64
	for _, v := range vals {
		if !v.Valid {
			return NullFloat{}
		}
		sum += v.Float64
	}
	return Some(sum / float64(len(vals)))
}

// Complement returns 1 - v, missing stays missing.
func Complement(v NullFloat) NullFloat {
	if !v.Valid {
		return v
	}
	return Some(1 - v.Float64)
}

// Present keeps only the valid values.
func Present(vals []NullFloat) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}
