// Package decode turns inspection payloads into domain records.
package decode

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/wavecap/wavecap/internal/domain"
)

// JSONDecoder decodes instrument JSON payloads of the form
//
//	{"measurement.1": {"name": "G1_peak_amplitude", "value": 81.2}, ..., "ascan": [12, -3, ...]}
//
// The measurement keys contain a literal dot.
type JSONDecoder struct{}

// NewJSONDecoder creates a JSON decoder.
func NewJSONDecoder() *JSONDecoder {
	return &JSONDecoder{}
}

// Decode parses a payload. Absent fields are left unset; fields of the wrong
// type make the whole payload malformed.
func (d *JSONDecoder) Decode(payload []byte) (domain.Record, error) {
	var rec domain.Record

	if !gjson.ValidBytes(payload) {
		return rec, fmt.Errorf("%w: invalid json", domain.ErrMalformedPayload)
	}
	root := gjson.ParseBytes(payload)

	for slot := 1; slot <= domain.ScalarSlots; slot++ {
		m := root.Get(measurementPath(slot))
		if !m.Exists() {
			continue
		}
		name, value, err := decodeMeasurement(slot, m)
		if err != nil {
			return domain.Record{}, err
		}
		rec.SetScalar(slot, name, value)
	}

	ascan := root.Get("ascan")
	if ascan.IsArray() {
		samples, err := decodeAscan(ascan)
		if err != nil {
			return domain.Record{}, err
		}
		rec.Waveform = samples
	}

	return rec, nil
}

func measurementPath(slot int) string {
	return fmt.Sprintf(`measurement\.%d`, slot)
}

func decodeMeasurement(slot int, m gjson.Result) (string, float64, error) {
	if !m.IsObject() {
		return "", 0, fmt.Errorf("%w: measurement.%d is not an object", domain.ErrMalformedPayload, slot)
	}

	name := domain.DefaultSlotName(slot)
	if n := m.Get("name"); n.Exists() {
		if n.Type != gjson.String {
			return "", 0, fmt.Errorf("%w: measurement.%d name is %s", domain.ErrMalformedPayload, slot, n.Type)
		}
		name = n.String()
	}

	var value float64
	if v := m.Get("value"); v.Exists() {
		if v.Type != gjson.Number {
			return "", 0, fmt.Errorf("%w: measurement.%d value is %s", domain.ErrMalformedPayload, slot, v.Type)
		}
		value = v.Float()
	}
	return name, value, nil
}

// decodeAscan converts the sample array. Fractional samples are truncated.
func decodeAscan(ascan gjson.Result) ([]int, error) {
	elems := ascan.Array()
	if len(elems) == 0 {
		return nil, nil
	}
	samples := make([]int, len(elems))
	for i, e := range elems {
		if e.Type != gjson.Number {
			return nil, fmt.Errorf("%w: ascan[%d] is %s", domain.ErrMalformedPayload, i, e.Type)
		}
		samples[i] = int(e.Int())
	}
	return samples, nil
}
