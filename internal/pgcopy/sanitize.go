package pgcopy

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Sanitizer is a transform.Transformer that guarantees its output is valid
// UTF-8. Valid sequences pass through byte-exact; bytes that cannot start
// or complete a valid sequence are silently dropped and counted. It never
// returns a hard error on bad input.
//
// Legacy rows in the source contain the occasional latin-1 artifact; the
// migration must finish regardless, so repair is lossy by policy. The
// dropped count is surfaced so the operator can judge the damage.
type Sanitizer struct {
	dropped int64
}

var _ transform.Transformer = (*Sanitizer)(nil)

func (s *Sanitizer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		// ASCII fast path.
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}

		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				// Might be a sequence split across the chunk boundary.
				return nDst, nSrc, transform.ErrShortSrc
			}
			s.dropped++
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}

// Reset clears decoding state between uses. The dropped counter is
// cumulative for the lifetime of the Sanitizer; one instance serves one
// table transfer.
func (s *Sanitizer) Reset() {}

// Dropped returns the number of bytes removed so far.
func (s *Sanitizer) Dropped() int64 {
	return s.dropped
}
