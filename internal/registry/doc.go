// Package registry provides the central "glue" for the module system.
//
// The Registry stores the mapping between the transform names used in kind
// definitions (e.g., "build") and the Go functions that implement them.
// During application startup the registry is populated by every module and
// then validated against the loaded kinds, so a kind can never reference a
// transform that does not exist.
package registry
