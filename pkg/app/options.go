// Package app holds the contracts between command options and the application runner.
package app

import cliflag "github.com/kart-io/campus-rag/pkg/app/cliflag"

// CliOptions is implemented by the top-level options of a command.
// Flags are grouped into named sets so help output stays sectioned.
type CliOptions interface {
	// Flags returns the option flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete fills in derived defaults after flags and config are parsed.
	Complete() error
	// Validate validates the options.
	Validate() error
}
