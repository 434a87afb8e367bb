package capability

// Name identifies one member of the capability namespace a function body may
// reference as a global.
type Name string

const (
	Notes   Name = "notes"
	Console Name = "console"
	Utils   Name = "utils"
)

// All is the closed set of capability names, sorted.
var All = []Name{Console, Notes, Utils}

// Names returns All as plain strings.
func Names() []string {
	out := make([]string, len(All))
	for i, n := range All {
		out[i] = string(n)
	}
	return out
}

// IsName reports whether s names a capability.
func IsName(s string) bool {
	for _, n := range All {
		if string(n) == s {
			return true
		}
	}
	return false
}
