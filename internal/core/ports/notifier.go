package ports

import (
	"context"
	"time"
)

// Notifier delivers an issued OTP to its owner. Delivery is best effort.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string, ttl time.Duration) error
}
