package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/constants"
)

// generateOTP produces a fixed-length numeric code from crypto/rand.
func generateOTP(length int) (string, error) {
	if length <= 0 {
		length = constants.OTPLength
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrOTPIssueFailed, err)
		}
		b.WriteString(n.String())
	}
	return b.String(), nil
}

// otpExpiry returns the expiry timestamp for a code issued now.
func otpExpiry(now time.Time) time.Time {
	return now.Add(constants.OTPExpiryHours * time.Hour)
}

// validateOTPWindow checks expiry against the clock. Attempts and reuse are
// checked by the caller since they live on the owning row.
func validateOTPWindow(expiresAt *time.Time, now time.Time) error {
	if expiresAt == nil {
		return ErrOTPInvalid
	}
	if now.After(*expiresAt) {
		return ErrOTPExpired
	}
	return nil
}
