package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gigon/gigon/internal/logging"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed JSON log record.
type Entry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
	Raw   string // set when the line is not JSON
}

// Parse decodes a slog JSON line. Lines that are not JSON come back as Raw.
func Parse(line string) Entry {
	var all map[string]any
	if err := json.Unmarshal([]byte(line), &all); err != nil {
		return Entry{Raw: line}
	}

	var e Entry
	if s, ok := all["time"].(string); ok {
		e.Time, _ = time.Parse(time.RFC3339Nano, s)
	}
	e.Level, _ = all["level"].(string)
	e.Msg, _ = all["msg"].(string)
	delete(all, "time")
	delete(all, "level")
	delete(all, "msg")
	if len(all) > 0 {
		e.Attrs = all
	}
	return e
}

// Filter selects entries by minimum level and pattern.
type Filter struct {
	MinLevel string         // empty keeps every level
	Pattern  *regexp.Regexp // matched against message and attribute values
}

// Match reports whether e passes the filter. Raw lines only face the pattern.
func (f Filter) Match(e Entry) bool {
	if e.Raw != "" {
		return f.Pattern == nil || f.Pattern.MatchString(e.Raw)
	}
	if f.MinLevel != "" && logging.ParseLevel(e.Level) < logging.ParseLevel(f.MinLevel) {
		return false
	}
	if f.Pattern == nil {
		return true
	}
	text := e.Msg
	for _, v := range e.Attrs {
		text += " " + fmt.Sprint(v)
	}
	return f.Pattern.MatchString(text)
}

var (
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF"))
	levelStyle = map[string]lipgloss.Style{
		logging.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		logging.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		logging.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		logging.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// Format renders e as "[15:04:05.000] [LEVEL] msg key=value ...". Attributes
// are sorted by key. Colors are dropped when stdout is not a terminal.
func (e Entry) Format() string {
	if e.Raw != "" {
		return e.Raw
	}

	level := strings.ToUpper(e.Level)
	style, ok := levelStyle[level]
	if !ok {
		style = lipgloss.NewStyle()
	}

	var sb strings.Builder
	sb.WriteString(timeStyle.Render("[" + e.Time.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(style.Render("[" + level + "]"))
	sb.WriteString(" ")
	sb.WriteString(e.Msg)

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(keyStyle.Render(k + "="))
		sb.WriteString(fmt.Sprint(e.Attrs[k]))
	}
	return sb.String()
}
