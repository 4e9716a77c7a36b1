package logtail

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file has no lines.
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

// Attr is one extra key/value pair of a record.
type Attr struct {
	Key   string
	Value string
}

// Entry is one parsed log record. Lines that are not JSON records keep only
// Raw.
type Entry struct {
	Time  time.Time
	Level slog.Level
	Msg   string
	Attrs []Attr
	Raw   string
	JSON  bool
}

// Parse reads one line written by the JSON session logger.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Level: slog.LevelInfo}

	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return entry
	}
	entry.JSON = true

	if v, ok := fields[slog.TimeKey].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			entry.Time = ts
		}
	}
	if v, ok := fields[slog.LevelKey].(string); ok {
		_ = entry.Level.UnmarshalText([]byte(v))
	}
	if v, ok := fields[slog.MessageKey].(string); ok {
		entry.Msg = v
	}
	delete(fields, slog.TimeKey)
	delete(fields, slog.LevelKey)
	delete(fields, slog.MessageKey)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry.Attrs = append(entry.Attrs, Attr{Key: k, Value: formatValue(fields[k])})
	}
	return entry
}

// ParseLevel reads a level name such as "warn". Unknown names are info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Filter keeps entries at or above level. Non-JSON lines are always kept.
func Filter(entries []Entry, level slog.Level) []Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if !e.JSON || e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t\"=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case json.Number:
		return val.String()
	case nil:
		return "null"
	case bool:
		return fmt.Sprint(val)
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(val); err != nil {
			return fmt.Sprint(val)
		}
		return strings.TrimSpace(buf.String())
	}
}

var (
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6495ED"))
	msgStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F8F8F2"))
	levelStyle = map[slog.Level]lipgloss.Style{
		slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Bold(true),
		slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Bold(true),
		slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C")).Bold(true),
		slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
	}
)

// Format renders an entry as one terminal line:
//
//	2026-03-01 12:00:00 WARN  set state failed id=BV1 err="boom"
func Format(e Entry) string {
	if !e.JSON {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(timeStyle.Render(e.Time.Local().Format("2006-01-02 15:04:05")))
		b.WriteString(" ")
	}
	b.WriteString(styleFor(e.Level).Render(fmt.Sprintf("%-5s", e.Level.String())))
	b.WriteString(" ")
	b.WriteString(msgStyle.Render(e.Msg))
	for _, a := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(keyStyle.Render(a.Key + "="))
		b.WriteString(a.Value)
	}
	return b.String()
}

func styleFor(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return levelStyle[slog.LevelError]
	case level >= slog.LevelWarn:
		return levelStyle[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return levelStyle[slog.LevelInfo]
	default:
		return levelStyle[slog.LevelDebug]
	}
}
