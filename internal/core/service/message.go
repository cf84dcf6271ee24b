package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRequestQuantity    = 1
	defaultProductionQuantity = 10

	productMarker    = "Requested product:"
	newProductMarker = "Requested NEW product:"
	quantityMarker   = "Quantity:"

	estimateAwaitingProduction = "Awaiting production schedule"
	estimateNewProduct         = "New product awaiting production"

	arrivalLeadTime  = 4 * 24 * time.Hour
	shipmentLeadTime = 24 * time.Hour
)

func arrivalEstimate(now time.Time) string {
	return "Will arrive by " + now.Add(arrivalLeadTime).Format(time.DateOnly)
}

func shipmentEstimate(now time.Time) string {
	return "Ready for shipment on " + now.Add(shipmentLeadTime).Format(time.DateOnly)
}

func productFragment(name string, quantity int) string {
	return fmt.Sprintf("\n\n%s %s, %s %d", productMarker, name, quantityMarker, quantity)
}

func newProductFragment(name string, quantity int) string {
	return fmt.Sprintf("\n\n%s %s, %s %d", newProductMarker, name, quantityMarker, quantity)
}

// parseProductFragment finds the first "Requested product: <name>, Quantity: <n>"
// line in message. The quantity falls back to defaultProductionQuantity unless
// it is a positive number.
func parseProductFragment(message string) (name string, quantity int, ok bool) {
	for _, line := range strings.Split(message, "\n") {
		var rest string
		switch {
		case strings.Contains(line, newProductMarker):
			_, rest, _ = strings.Cut(line, newProductMarker)
		case strings.Contains(line, productMarker):
			_, rest, _ = strings.Cut(line, productMarker)
		default:
			continue
		}

		parts := strings.Split(rest, ",")
		name = strings.TrimSpace(parts[0])
		quantity = defaultProductionQuantity
		if len(parts) > 1 && strings.Contains(parts[1], quantityMarker) {
			raw := strings.TrimSpace(strings.Replace(parts[1], quantityMarker, "", 1))
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				quantity = n
			}
		}
		return name, quantity, name != ""
	}
	return "", 0, false
}

// ParseQuantity converts user input into a requested quantity. Blank input
// means the default of 1. Malformed or non-positive input also yields 1,
// together with ErrInvalidQuantity so the caller can report it.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRequestQuantity, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultRequestQuantity, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	if n <= 0 {
		return defaultRequestQuantity, fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}
	return n, nil
}
