package deploy

import "errors"

// Gate failures. Returned errors wrap one of these so callers can classify
// them with errors.Is.
var (
	ErrConfigNotFound   = errors.New("deployment configuration not found")
	ErrConfigInvalid    = errors.New("deployment configuration is invalid")
	ErrSiteIDMissing    = errors.New("siteId is missing")
	ErrToolUnavailable  = errors.New("publishing CLI is not available")
	ErrNotAuthenticated = errors.New("not authenticated with the publishing CLI")
	ErrBuildFailed      = errors.New("build failed")
	ErrPublishFailed    = errors.New("publish failed")
)
