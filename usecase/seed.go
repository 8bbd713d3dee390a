package usecase

import (
	"time"

	"github.com/open2fa/console/domain/entities"
)

// defaultDevices returns the dataset a fresh (or recovered) registry is
// seeded with. Fixed ids and secrets so that enrollment material survives a
// re-seed and documented lookups work against a clean install.
func defaultDevices() []*entities.Device {
	return []*entities.Device{
		{
			ID:           "device-1001",
			SerialNumber: "SN-1001-OPEN2FA",
			Model:        "Industrial Edge 500",
			Name:         "Production Line Edge Node A",
			OwnerOrg:     "Manufacturing Division",
			Remark:       "Installed in the line 1 power cabinet",
			Secret:       "JBSWY3DPEHPK3PXP",
			CreatedAt:    time.Date(2024, 3, 12, 1, 30, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2024, 3, 12, 1, 30, 0, 0, time.UTC),
		},
		{
			ID:           "device-1002",
			SerialNumber: "SN-1002-OPEN2FA",
			Model:        "Industrial Edge 500",
			Name:         "Production Line Edge Node B",
			OwnerOrg:     "Manufacturing Division",
			Remark:       "Standby node, inspected periodically",
			Secret:       "KRUGS4ZANFZSAYJA",
			CreatedAt:    time.Date(2024, 5, 18, 9, 20, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2024, 5, 18, 9, 20, 0, 0, time.UTC),
		},
		{
			ID:           "device-2001",
			SerialNumber: "SN-2001-OPEN2FA",
			Model:        "Secure Gateway X",
			Name:         "Branch Office VPN Gateway",
			OwnerOrg:     "Information Security",
			Remark:       "Connects branch offices to headquarters",
			Secret:       "NB2W45DFOIZA====",
			CreatedAt:    time.Date(2024, 6, 2, 13, 45, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2024, 6, 2, 13, 45, 0, 0, time.UTC),
		},
	}
}

// DefaultUsers is the console's fixed operator set when no override is
// configured.
func DefaultUsers() []entities.User {
	return []entities.User{
		{ID: "user-admin", Username: "admin", Password: "admin123", Role: entities.RoleAdmin},
		{ID: "user-operator", Username: "user", Password: "user123", Role: entities.RoleUser},
	}
}
