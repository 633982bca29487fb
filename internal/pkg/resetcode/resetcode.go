// Package resetcode generates and checks the numeric password-reset codes
// stored on a user record.
package resetcode

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/go-weather-auth/internal/domain"
)

const (
	Length = 6
	TTL    = 24 * time.Hour
)

// Result is the outcome of checking a supplied code.
type Result int

const (
	Valid Result = iota
	WrongCode
	Expired
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case WrongCode:
		return "wrong_code"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Generator draws each digit independently and uniformly from 0-9.
type Generator struct {
	rand io.Reader
}

func NewGenerator() *Generator { return &Generator{rand: rand.Reader} }

// Generate returns a fresh code and its expiry relative to now.
func (g *Generator) Generate(now time.Time) (string, time.Time, error) {
	digits := make([]byte, Length)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(g.rand, ten)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("generate reset code: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), now.Add(TTL), nil
}

// Check compares supplied against the code stored on u. A mismatch is reported
// before expiry is considered. On Expired the stored code is cleared from u so it
// cannot be reused; persisting u is up to the caller.
func Check(u *domain.User, supplied string, now time.Time) Result {
	if u.ResetCode == nil || *u.ResetCode != supplied {
		return WrongCode
	}
	if u.ResetCodeExpiry == nil || now.After(*u.ResetCodeExpiry) {
		u.ClearResetCode()
		return Expired
	}
	return Valid
}
