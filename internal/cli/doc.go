// Package cli parses the xpigraph command line into an app.Config.
//
// Flags select the checkout root (also accepted as the single positional
// argument), the graph config and kinds directory, an optional .env file,
// the decision parameters (-level, -fast, -head-repository, -project), the
// output format and destination, and logging. Usage errors are returned as
// an *ExitError with code 2; -h prints usage and asks the caller to exit 0.
package cli
