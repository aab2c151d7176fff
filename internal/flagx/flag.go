// Package flagx lets independent components each parse their own subset of
// the command line without tripping over each other's flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the arguments from args that belong to allowedFlags,
// together with their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.yaml
//  2. Flag and value combined with '=':      --config=conf.yaml
//
// Positional arguments (such as a subcommand name) and unknown flags are
// dropped. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// a following token that is not itself a flag is the value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFile extracts the config file path given with -c or -config.
// It returns "" when neither flag is present; the last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file (json or yaml)")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
