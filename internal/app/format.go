package app

import "github.com/jsamuelsen/qotd/internal/domain"

// Wire layout pieces. A reply reads:
//
//	"<text>"
//
//		-- <attribution>
const (
	replyPrefix      = `"`
	replySeparator   = "\"\n\n\t-- "
	replyTerminator  = "\n"
	replyFixedLength = len(replyPrefix) + len(replySeparator) + len(replyTerminator)
)

// Format renders q in the QOTD wire layout.
func Format(q domain.Quote) []byte {
	return AppendFormat(make([]byte, 0, FormattedLen(q)), q)
}

// AppendFormat appends the wire rendering of q to dst and returns the extended slice.
func AppendFormat(dst []byte, q domain.Quote) []byte {
	dst = append(dst, replyPrefix...)
	dst = append(dst, q.Text...)
	dst = append(dst, replySeparator...)
	dst = append(dst, q.Attribution...)

	return append(dst, replyTerminator...)
}

// FormattedLen returns the number of bytes Format produces for q.
func FormattedLen(q domain.Quote) int {
	return replyFixedLength + len(q.Text) + len(q.Attribution)
}
