// Package vendors maps each supported vendor to the Redfish resource
// paths its BMC firmware actually serves. The Redfish standard leaves
// log service naming to the vendor: iLO exposes the IML, iDRAC the
// Lifecycle log, and so on. Deployments with unusual firmware can
// override the table from a YAML file.
package vendors

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// Profile holds the per-vendor Redfish resource paths, relative to the
// /redfish/v1 service root.
type Profile struct {
	SystemPath string `yaml:"system_path"`
	LogPath    string `yaml:"log_path"`
}

// generic is the fallback for vendors without a dedicated profile.
var generic = Profile{
	SystemPath: "/Systems/1",
	LogPath:    "/Systems/1/LogServices/SEL/Entries",
}

var builtin = map[models.Vendor]Profile{
	models.VendorHPE: {
		SystemPath: "/Systems/1",
		LogPath:    "/Systems/1/LogServices/IML/Entries",
	},
	models.VendorDell: {
		SystemPath: "/Systems/System.Embedded.1",
		LogPath:    "/Systems/System.Embedded.1/LogServices/Lclog/Entries",
	},
	models.VendorLenovo: {
		SystemPath: "/Systems/1",
		LogPath:    "/Systems/1/LogServices/PlatformLog/Entries",
	},
	models.VendorSupermicro: {
		SystemPath: "/Systems/1",
		LogPath:    "/Systems/1/LogServices/Log1/Entries",
	},
	models.VendorOther: generic,
}

// Profiles resolves vendors to Redfish path profiles.
type Profiles struct {
	overrides map[models.Vendor]Profile
}

// Builtin returns the compiled-in profile table.
func Builtin() *Profiles {
	return &Profiles{}
}

// Load reads YAML overrides and merges them over the built-in table.
// The file maps vendor names to profiles:
//
//	dell:
//	  system_path: /Systems/System.Embedded.1
//	  log_path: /Systems/System.Embedded.1/LogServices/Sel/Entries
func Load(path string) (*Profiles, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vendor profiles: %w", err)
	}
	var parsed map[string]Profile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing vendor profiles %s: %w", path, err)
	}

	overrides := make(map[models.Vendor]Profile, len(parsed))
	for name, p := range parsed {
		v, err := models.ParseVendor(name)
		if err != nil || v == models.VendorAll {
			return nil, fmt.Errorf("vendor profiles %s: %q is not a vendor", path, name)
		}
		if p.SystemPath == "" || p.LogPath == "" {
			return nil, fmt.Errorf("vendor profiles %s: %s needs both system_path and log_path", path, name)
		}
		overrides[v] = p
	}
	return &Profiles{overrides: overrides}, nil
}

// Get returns the profile for a vendor, falling back to the generic
// SEL paths for anything unknown.
func (p *Profiles) Get(v models.Vendor) Profile {
	if p != nil {
		if prof, ok := p.overrides[v]; ok {
			return prof
		}
	}
	if prof, ok := builtin[v]; ok {
		return prof
	}
	return generic
}
