package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"minimarket/domain"

	"github.com/shopspring/decimal"
)

const maxQuantity = 1<<31 - 1

// Encode serializes cart lines for a durable slot.
func Encode(lines []domain.CartLine) ([]byte, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return json.Marshal(lines)
}

// Decode parses and validates a serialized cart. Every entry must carry a
// product with a non-empty id and a non-negative price, a positive whole
// quantity, and no product may appear twice.
func Decode(data []byte) ([]domain.CartLine, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("cart data is not an array")
	}

	var raw []struct {
		Product  *domain.Product `json:"product"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("cart data unreadable: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, entry := range raw {
		if entry.Product == nil || entry.Product.ID == "" {
			return nil, fmt.Errorf("entry %d: missing product id", i)
		}
		if len(entry.Quantity) == 0 || string(entry.Quantity) == "null" {
			return nil, fmt.Errorf("entry %d: missing quantity", i)
		}
		qty, ok := quantity(entry.Quantity)
		if !ok {
			return nil, fmt.Errorf("entry %d: quantity %s is not a positive integer", i, entry.Quantity)
		}
		if entry.Product.Price.IsNegative() {
			return nil, fmt.Errorf("entry %d: negative price %s", i, entry.Product.Price)
		}
		if seen[entry.Product.ID] {
			return nil, fmt.Errorf("entry %d: product %s appears twice", i, entry.Product.ID)
		}
		seen[entry.Product.ID] = true
		lines = append(lines, domain.CartLine{Product: *entry.Product, Quantity: qty})
	}
	return lines, nil
}

// quantity accepts any JSON number with a whole positive value, so 2 and 2.0
// both read as 2.
func quantity(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil || !d.IsInteger() || !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(maxQuantity)) {
		return 0, false
	}
	return int(d.IntPart()), true
}
