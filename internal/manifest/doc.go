// Package manifest defines the two JSON files a scaffolded site carries at its
// root: the dependency manifest (package.json) and the deployment
// configuration (wix.config.json). It encodes them with stable field order,
// reads the deployment configuration back, and validates it against an
// embedded JSON Schema.
package manifest
