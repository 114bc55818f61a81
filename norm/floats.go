package norm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Floats is a float64 slice whose JSON form keeps NaN and infinities, which
// encoding/json rejects, as the strings "NaN", "+Inf" and "-Inf".
type Floats []float64

func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}

	out := make([]interface{}, len(f))
	for i, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
			continue
		}
		out[i] = v
	}
	return json.Marshal(out)
}

func (f *Floats) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*f = nil
		return nil
	}

	out := make(Floats, len(raw))
	for i, r := range raw {
		if len(r) > 0 && r[0] == '"' {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
			continue
		}
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	*f = out
	return nil
}

type plainParameters Parameters

func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		plainParameters
		Factors Floats `json:"factors,omitempty"`
	}{plainParameters(p), p.Factors})
}

func (p *Parameters) UnmarshalJSON(b []byte) error {
	aux := struct {
		*plainParameters
		Factors Floats `json:"factors,omitempty"`
	}{plainParameters: (*plainParameters)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.Factors = aux.Factors
	return nil
}
