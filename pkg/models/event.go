package models

import (
	"fmt"
	"time"
)

// Vendor identifies a server vendor's BMC flavour.
type Vendor string

const (
	VendorHPE        Vendor = "hpe"
	VendorDell       Vendor = "dell"
	VendorLenovo     Vendor = "lenovo"
	VendorSupermicro Vendor = "supermicro"
	VendorOther      Vendor = "other"

	// VendorAll is a fan-out marker accepted at the request boundary only.
	// It is never stored on an Event.
	VendorAll Vendor = "all"
)

// Vendors lists the real vendors in fan-out order.
var Vendors = []Vendor{VendorHPE, VendorDell, VendorLenovo, VendorSupermicro, VendorOther}

// ParseVendor validates a vendor string from a request payload.
func ParseVendor(s string) (Vendor, error) {
	v := Vendor(s)
	if v == VendorAll {
		return v, nil
	}
	for _, known := range Vendors {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vendor %q", s)
}

// Event is the canonical log record produced by normalization.
// Every field is populated; adapters supply defaults rather than
// propagate missing values.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Host      string    `json:"host"`
	Vendor    Vendor    `json:"vendor"`
	Service   string    `json:"component"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
}

// HardwareInfo describes the managed server as reported by its BMC.
type HardwareInfo struct {
	Model      string     `json:"model"`
	Serial     string     `json:"serial"`
	Firmware   string     `json:"firmware,omitempty"`
	PowerState string     `json:"power_state,omitempty"`
	LastBoot   *time.Time `json:"last_boot,omitempty"`
}

// Analysis is the risk assessment computed over a collection of events.
type Analysis struct {
	RiskScore float64  `json:"risk_score"`
	Summary   string   `json:"summary"`
	Insights  []string `json:"insights"`
}
