package jflow

import "strconv"

// numberBuf accumulates the ASCII digits, sign, decimal point and
// exponent of a number literal as the state machine walks over it. Its
// contents are always a prefix of a valid JSON number, per spec section 3.
type numberBuf struct {
	buf       []byte
	precision uint8
	negative  bool
}

func (n *numberBuf) reset() {
	n.buf = n.buf[:0]
	n.precision = 0
	n.negative = false
}

func (n *numberBuf) writeByte(b byte) { n.buf = append(n.buf, b) }

func (n *numberBuf) len() int { return len(n.buf) }

// markPrecision records the number of integral digits seen so far, the
// instant the decimal point is consumed. See spec section 9's "numeric
// precision semantics" design note: exponent digits never contribute.
func (n *numberBuf) markPrecision() { n.precision = uint8(len(n.buf)) }

func (n *numberBuf) incPrecision() { n.precision++ }

// parseDigits interprets buf as a decimal literal using strconv, which is
// locale independent and rounds to nearest, ties to even -- the same
// contract jsoncons' float_reader and jibby's convertFloat rely on.
func parseDigits(buf []byte) (float64, error) {
	return strconv.ParseFloat(string(buf), 64)
}

// parseInt64 reports ok=false on overflow instead of panicking, so the
// caller can retry as a double exactly as jsoncons' end_integer_value
// catches the range_error from string_to_integer and retries with
// float_reader.
func parseInt64(buf []byte, negative bool) (int64, bool) {
	s := string(buf)
	if negative {
		s = "-" + s
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseUint64(buf []byte) (uint64, bool) {
	v, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
