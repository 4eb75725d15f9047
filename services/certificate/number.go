package certificate

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	numberPrefix = "CERT"
	suffixLen    = 9
	base36       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewNumber returns CERT-<epoch millis>-<9 random base36 chars>. Uniqueness is
// probabilistic; the unique index on certificate_number is the backstop.
func NewNumber(now time.Time) string {
	var sb strings.Builder
	radix := big.NewInt(int64(len(base36)))
	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			n = big.NewInt(now.UnixNano() % int64(len(base36)))
		}
		sb.WriteByte(base36[n.Int64()])
	}
	return fmt.Sprintf("%s-%d-%s", numberPrefix, now.UnixMilli(), sb.String())
}

// ValidationHash is base64("userId-courseId-number"). It is a display token
// only: anyone can compute it, so it proves nothing.
func ValidationHash(userID, courseID uint, number string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d-%d-%s", userID, courseID, number)))
}

// shortHash is the prefix printed on the PDF.
func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16]
}
