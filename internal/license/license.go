// Package license defines the authorization boundary. Activation against
// the licensing backend is handled outside this engine; pipelines only ask
// whether a valid license is currently held.
package license

import "context"

// Checker reports whether the integration is authorized to run.
type Checker interface {
	Valid(ctx context.Context) bool
	Key() string
}

// KeyChecker is the minimal checker used by the daemon: a license key is
// present or it is not. The SaaS activation flow swaps in its own Checker.
type KeyChecker struct {
	LicenseKey string
}

func (c KeyChecker) Valid(ctx context.Context) bool {
	return c.LicenseKey != ""
}

func (c KeyChecker) Key() string {
	return c.LicenseKey
}
