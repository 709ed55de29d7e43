package enums

import "fmt"

// ProductStatus tracks whether a listing can still be ordered.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusReserved  ProductStatus = "reserved"
	ProductStatusSold      ProductStatus = "sold"
)

var validProductStatuses = []ProductStatus{
	ProductStatusAvailable,
	ProductStatusReserved,
	ProductStatusSold,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
