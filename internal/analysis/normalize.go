package analysis

// punctuation maps each byte that separates words to its XOR distance from a
// space. Every other entry is zero, so applying the table leaves it alone.
var punctuation = func() [256]byte {
	var t [256]byte
	for _, c := range []byte(`.,;:!?"()[]{}-`) {
		t[c] = c ^ ' '
	}
	return t
}()

// Normalize rewrites word-separating punctuation in buf to spaces, in place.
// Applying it twice is the same as applying it once.
func Normalize(buf []byte) {
	for i, c := range buf {
		buf[i] = c ^ punctuation[c]
	}
}

// IsSpace reports whether c is white space in the C locale.
func IsSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// IsDigit reports whether c is a decimal digit.
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
