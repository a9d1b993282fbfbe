package instance

import (
	"os"

	"github.com/flashmarket/storefront/pkg/env"
)

// ID names the running process in logs and cron lock values. It prefers the
// explicit instance variable, then the container hostname.
func ID() string {
	if id := env.First("", "STOREFRONT_INSTANCE_ID", "HOSTNAME"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
