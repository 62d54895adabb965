package textnorm

// WithinOneEdit reports whether a and b differ by at most one insertion,
// deletion, substitution or adjacent transposition (optimal string alignment).
func WithinOneEdit(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la-lb > 1 || lb-la > 1 {
		return false
	}

	i := 0
	for i < la && i < lb && ra[i] == rb[i] {
		i++
	}
	if i == la && i == lb {
		return true
	}

	switch {
	case la == lb:
		// substitution
		if equalRunes(ra[i+1:], rb[i+1:]) {
			return true
		}
		// transposition
		return i+1 < la && ra[i] == rb[i+1] && ra[i+1] == rb[i] && equalRunes(ra[i+2:], rb[i+2:])
	case la > lb:
		return equalRunes(ra[i+1:], rb[i:])
	default:
		return equalRunes(ra[i:], rb[i+1:])
	}
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
