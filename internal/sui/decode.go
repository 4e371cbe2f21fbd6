package sui

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrDecode = errors.New("cannot decode move value")

// DecodeByteVector reads a vector<u8> field, which the full node renders
// as a JSON array of numbers.
func DecodeByteVector(fields []byte, name string) ([]byte, error) {
	v := gjson.GetBytes(fields, name)
	if !v.Exists() {
		return nil, fmt.Errorf("%w: field %q missing", ErrDecode, name)
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: field %q is not a byte vector", ErrDecode, name)
	}

	elems := v.Array()
	out := make([]byte, 0, len(elems))
	for i, e := range elems {
		if e.Type != gjson.Number {
			return nil, fmt.Errorf("%w: field %q element %d is not a number", ErrDecode, name, i)
		}
		n := e.Float()
		if n < 0 || n > 255 || n != float64(int(n)) {
			return nil, fmt.Errorf("%w: field %q element %d out of byte range", ErrDecode, name, i)
		}
		out = append(out, byte(n))
	}
	return out, nil
}

func ObjectUID(fields []byte) string {
	return gjson.GetBytes(fields, "id.id").String()
}
