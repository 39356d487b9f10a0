package config

import (
	"github.com/xplshn/glc/pkg/cli"
)

// SetupFlagGroups registers -W<warning> / -Wno-<warning> and -F<feature> /
// -Fno-<feature> toggles on the flag set and returns the entry slices,
// indexed by Warning and Feature ordinal, so the driver can apply them
// after parsing.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningEntries := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningEntries[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "W",
			Usage:    info.Description,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Warnings", "Diagnostic toggles.", "warning", "Available warnings", warningEntries)

	featureEntries := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureEntries[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "F",
			Usage:    info.Description,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Features", "Code generation toggles.", "feature", "Available features", featureEntries)

	return warningEntries, featureEntries
}
