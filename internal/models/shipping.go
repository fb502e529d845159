package models

import "strings"

// ShippingOption describes how an item changes hands.
type ShippingOption string

const (
	ShippingOptionPickup   ShippingOption = "PICKUP"
	ShippingOptionShipping ShippingOption = "SHIPPING"
	ShippingOptionDropoff  ShippingOption = "DROPOFF"
)

// ShippingResponsibility describes who pays for or arranges shipping.
type ShippingResponsibility string

const (
	ShippingResponsibilityGiver    ShippingResponsibility = "GIVER"
	ShippingResponsibilityReceiver ShippingResponsibility = "RECEIVER"
	ShippingResponsibilityShared   ShippingResponsibility = "SHARED"
)

// ParseShippingOption coerces raw input to a known option.
// Unrecognized values fall back to PICKUP instead of failing.
func ParseShippingOption(raw string) ShippingOption {
	switch ShippingOption(strings.ToUpper(strings.TrimSpace(raw))) {
	case ShippingOptionShipping:
		return ShippingOptionShipping
	case ShippingOptionDropoff:
		return ShippingOptionDropoff
	default:
		return ShippingOptionPickup
	}
}

// ParseShippingResponsibility coerces raw input to a known responsibility.
// Unrecognized values fall back to RECEIVER instead of failing.
func ParseShippingResponsibility(raw string) ShippingResponsibility {
	switch ShippingResponsibility(strings.ToUpper(strings.TrimSpace(raw))) {
	case ShippingResponsibilityGiver:
		return ShippingResponsibilityGiver
	case ShippingResponsibilityShared:
		return ShippingResponsibilityShared
	default:
		return ShippingResponsibilityReceiver
	}
}
