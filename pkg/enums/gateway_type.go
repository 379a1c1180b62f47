package enums

import "fmt"

// GatewayType identifies a supported payment-gateway brand.
type GatewayType string

const (
	GatewayTypeVentra GatewayType = "ventra"
)

var validGatewayTypes = []GatewayType{
	GatewayTypeVentra,
}

// String implements fmt.Stringer.
func (g GatewayType) String() string {
	return string(g)
}

// IsValid reports whether the value is known.
func (g GatewayType) IsValid() bool {
	for _, candidate := range validGatewayTypes {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayType converts raw input into a GatewayType.
func ParseGatewayType(value string) (GatewayType, error) {
	for _, candidate := range validGatewayTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway type %q", value)
}
