package cmd

import (
	"fmt"
	"strings"

	"github.com/ty-ras/start/internal/stage"
)

// helpText renders the usage with one entry per stage flag, listing the
// accepted values and when the flag applies.
func helpText(stages []stage.Spec) string {
	var b strings.Builder
	b.WriteString(`
  Usage: tyras-start [options...] [folder]

  All options and folder are optional as command-line arguments.
  If any of them is omitted, the program will prompt for their values.
  Options:
`)
	for _, st := range stages {
		if st.Flag == nil || st.Flag.Positional {
			continue
		}
		fmt.Fprintf(&b, "    --%s, -%s\t%s\n", st.Key, st.Flag.Alias, st.Flag.Description)
		if st.Condition != nil && st.Condition.Description != "" {
			fmt.Fprintf(&b, "          %s\n", st.Condition.Description)
		}
		if st.Schema != nil {
			fmt.Fprintf(&b, "          Schema: %s\n", st.Schema.Describe())
		}
	}
	b.WriteString(`  General:
    --config	Path to the config file
    --registry	Package registry URL
    --max-rounds	Give up after this many input rounds (0: never)
    --verbose	Enable verbose output
    --version	Print the version
    --help	Print this help

`)
	return b.String()
}
