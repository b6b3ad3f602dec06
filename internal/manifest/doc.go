// Package manifest discovers the XPI sub-projects of a checkout.
//
// A sub-project is any directory holding a package.json. Discovery walks the
// checkout once, reads each descriptor's scripts, and validates the collected
// records as a whole before returning an immutable Manifest. Validation
// problems are reported together so they can all be fixed in a single pass.
//
// Callers share one Cache per run; the first Get performs the walk and every
// later Get returns the same *Manifest.
package manifest
