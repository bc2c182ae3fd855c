package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOrderNumber builds a human-readable unique order number, e.g.
// PM-20260828-7KQ2XD. Uniqueness is backed by the column constraint;
// the random suffix makes collisions within a day vanishingly rare.
func NewOrderNumber(t time.Time) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("PM-%s-%s", t.Format("20060102"), string(buf))
}
