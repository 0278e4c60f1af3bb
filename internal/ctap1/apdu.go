package ctap1

import "fmt"

// Request is a parsed short-form ISO 7816-4 APDU: CLA INS P1 P2 [Lc data].
type Request struct {
	CLA, INS, P1, P2 byte
	Data             []byte
}

// ParseRequest parses a short APDU. It accepts the two conventional
// encodings: a bare 4-byte header (no Lc/data, used by VERSION) and a
// header followed by a 1-byte Lc and Lc bytes of data.
func ParseRequest(apdu []byte) (Request, error) {
	if len(apdu) < 4 {
		return Request{}, fmt.Errorf("ctap1: apdu shorter than header")
	}
	req := Request{CLA: apdu[0], INS: apdu[1], P1: apdu[2], P2: apdu[3]}
	rest := apdu[4:]
	if len(rest) == 0 {
		return req, nil
	}
	if len(rest) < 1 {
		return Request{}, fmt.Errorf("ctap1: apdu missing Lc")
	}
	lc := int(rest[0])
	rest = rest[1:]
	if len(rest) < lc {
		return Request{}, &StatusError{Ins: req.INS, SW: SWWrongLength}
	}
	req.Data = rest[:lc]
	return req, nil
}

// EncodeResponse appends the status word sw to body.
func EncodeResponse(body []byte, sw uint16) []byte {
	out := make([]byte, 0, len(body)+2)
	out = append(out, body...)
	out = append(out, byte(sw>>8), byte(sw))
	return out
}

// EncodeStatusOnly builds a response with no data, just a status word.
func EncodeStatusOnly(sw uint16) []byte {
	return []byte{byte(sw >> 8), byte(sw)}
}
