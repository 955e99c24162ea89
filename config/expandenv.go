package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envRefPattern = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict substitutes ${VAR} references in s with environment
// values. A reference to a variable absent from the environment is an
// error rather than an empty substitution, so a missing secret fails
// loudly at load time. `$$` emits a literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	var missing []string

	out := envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		if ref == "$$" {
			return "$"
		}
		name := ref[2 : len(ref)-1]
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ""
		}
		return value
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		missing = dedupe(missing)
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missing, ", "))
	}
	return out, nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
