// Package util provides identifier helpers for the storefront.
package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID returns a random RFC 4122 v4 UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// NewOrderID returns an order identifier of the form ORD-<unix millis>-<9 chars>.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// NewUserID returns an account identifier of the form user-<uuid>.
func NewUserID() string {
	return "user-" + uuid.NewString()
}
