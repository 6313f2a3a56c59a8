// Package truncate keeps the leading lines of a text file and discards the rest.
//
// A line is a run of bytes ending in '\n'; the last line of a file may have
// no terminator. '\r' is ordinary line content, so CRLF files keep their
// terminators exactly.
//
// # Pure functions
//
//	retained, n := truncate.Prefix(content, 3)
//	total := truncate.CountLines(content)
//
// # Files
//
//	tr, err := truncate.New(filesystem.NewDefaultFileSystemAdapter(), lock.NewLockManager(),
//		truncate.WithMaxLines(1153))
//	res, err := tr.Truncate(ctx, "notes.txt")
//
// By default the file is rewritten in place: opened with O_TRUNC and written
// once. A crash between those two steps leaves the file short or empty and
// is reported as a partial write when the process survives it.
// WithAtomicWrite switches to a temporary file renamed over the target.
// The rename gives the path a new inode: hard links to the old file keep the
// old content, and the file ends up owned by the invoking user. Permission,
// setuid, setgid and sticky bits are carried over.
package truncate
