package fifo

import "bytes"

//
// Frame a message.
// Escape and separator bytes in the payload are prefixed
// with the escape byte and the separator is appended.
// Blank mode returns the payload unchanged.
func (p *Parameters) Encode(message []byte) (frame []byte) {
	if !p.Framed() {
		frame = message
		return
	}
	n := len(message) + 1
	for _, b := range message {
		if b == p.Escape || b == p.Separator {
			n++
		}
	}
	frame = make([]byte, 0, n)
	for _, b := range message {
		if b == p.Escape || b == p.Separator {
			frame = append(frame, p.Escape)
		}
		frame = append(frame, b)
	}
	frame = append(frame, p.Separator)

	return
}

//
// Decode the first frame in the buffer.
// Returns the payload and the number of raw bytes consumed
// (separator included). Blank mode consumes the whole buffer.
// Errors: ErrIncompleteEscape when the buffer ends with an
// escape; ErrTooLarge when no separator is found.
func (p *Parameters) Decode(raw []byte) (message []byte, consumed int, err error) {
	if !p.Framed() {
		message = append([]byte{}, raw...)
		consumed = len(raw)
		return
	}
	message = make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		switch b {
		case p.Escape:
			i++
			if i == len(raw) {
				message = nil
				err = ErrIncompleteEscape
				return
			}
			b = raw[i]
		case p.Separator:
			consumed = i + 1
			return
		}
		message = append(message, b)
	}

	message = nil
	err = ErrTooLarge

	return
}

//
// The buffer starts with the roll mark.
func (p *Parameters) isRollMark(raw []byte) bool {
	return p.Framed() && bytes.HasPrefix(raw, p.RollMark)
}
