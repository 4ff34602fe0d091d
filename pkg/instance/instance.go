package instance

import "github.com/angelmondragon/inventory-tracker/pkg/env"

// GetID names the running process for log correlation. An explicit
// INVENTORY_INSTANCE_ID wins over the platform-provided DYNO or HOSTNAME.
func GetID() string {
	return env.First("local", "INVENTORY_INSTANCE_ID", "DYNO", "HOSTNAME")
}
