// Package logtail reads and formats gigon's JSON log file.
//
// Read returns the last N lines of a file using a ring buffer, so memory
// stays O(N) however large the log grows. Parse decodes one slog JSON
// record, keeping unknown keys as attributes; lines that are not JSON are
// passed through untouched. Filter selects records by minimum level and a
// regular expression over the message and attribute values. Format renders
// a record on one line, colored when the terminal supports it.
//
// Example:
//
//	lines, err := logtail.Read(cfg.LogPath(), 50)
//	if err != nil {
//		return err
//	}
//	for _, line := range lines {
//		if e := logtail.Parse(line); filter.Match(e) {
//			fmt.Println(e.Format())
//		}
//	}
package logtail
