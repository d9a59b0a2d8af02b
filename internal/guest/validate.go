package guest

// ValidHostname reports whether name is an acceptable hostname: non-empty,
// ASCII letters, digits and dashes only, with no leading dash.
func ValidHostname(name string) bool {
	if name == "" || name[0] == '-' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// AcceptableUsername reports whether name can be created as the primary
// user: never root, starting with a lower-case letter, containing only
// lower-case letters, digits and dashes. Path separators, colons and
// whitespace are rejected by construction.
func AcceptableUsername(name string) bool {
	if name == "" || name == "root" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if i == 0 {
			if c < 'a' || c > 'z' {
				return false
			}
			continue
		}
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}
