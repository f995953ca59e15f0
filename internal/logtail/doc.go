// Package logtail reads the end of ladle's log file and renders its JSON
// entries for a terminal.
//
// # Reading
//
// [Read] keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) regardless of file size. A missing file yields
// no lines and no error.
//
// # Formatting
//
// [FormatLine] turns one zap JSON entry into
//
//	<ts> <LEVEL> [<logger>] <msg> key=value ...
//
// with extra fields sorted by key. Lines that are not JSON objects pass
// through unchanged, so a hand-edited or truncated file still prints.
package logtail
