package ctap2

import "github.com/zequinha-taveira/openfido-esp/internal/cbor"

// parseTopLevelMap reads a CBOR map whose keys are all small integers
// (as CTAP2 request parameter maps are) and returns each key's raw
// value bytes, unparsed. This is the first pass of the two-pass,
// order-independent parse spec.md section 9 requires for
// GET_ASSERTION and MAKE_CREDENTIAL: "collect all fields first (by
// stashing each value's raw byte range via Skip), then post-process in
// whatever order the logic needs, regardless of the order fields
// arrived on the wire."
func parseTopLevelMap(data []byte) (map[int64][]byte, error) {
	d := cbor.NewDecoder(data)
	n, err := d.MapHeader()
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]byte, n)
	for i := 0; i < n; i++ {
		key, err := d.Int()
		if err != nil {
			return nil, err
		}
		val, err := d.SkipValue()
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}
