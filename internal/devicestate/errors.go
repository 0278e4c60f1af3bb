package devicestate

import "errors"

// ErrCounterExhausted is returned by NextCounter when the 32-bit
// signature counter has reached its maximum value. spec.md section 9
// leaves wrap behavior undefined in the reference source; this
// redesign refuses further assertions rather than silently rolling
// over.
var ErrCounterExhausted = errors.New("devicestate: signature counter exhausted")
