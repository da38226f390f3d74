package index

import "strings"

// ImmutableURI converts a filesystem path into a SQLite URI that opens the
// file as immutable, so that readers take no locks and never block on or
// block a writer. Path characters that are significant in a URI are escaped
// and runs of either separator collapse into a single '/'. A path starting
// with a drive letter gains a leading '/', as in file:/C:/dir/index.db.
func ImmutableURI(path string) string {
	var b strings.Builder
	b.Grow(len(path) + 20)
	b.WriteString("file:")

	lastWasSlash := false
	if len(path) >= 2 && path[1] == ':' &&
		((path[0] >= 'a' && path[0] <= 'z') || (path[0] >= 'A' && path[0] <= 'Z')) {
		b.WriteByte('/')
		lastWasSlash = true
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		thisIsSlash := false
		switch c {
		case '?':
			b.WriteString("%3f")
		case '#':
			b.WriteString("%23")
		case '\\', '/':
			thisIsSlash = true
			if !lastWasSlash {
				b.WriteByte('/')
			}
		default:
			b.WriteByte(c)
		}
		lastWasSlash = thisIsSlash
	}

	b.WriteString("?immutable=1")
	return b.String()
}
