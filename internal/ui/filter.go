package ui

import (
	"strconv"
	"strings"

	"github.com/five82/sieve/internal/feed"
)

// parseFilterQuery applies a filter line typed after "/" to base. Terms are
// space separated:
//
//	tag:<tag>  group:<group>  min:<views>  max:<views>  state:<STATE>  all
//
// Anything else is free text matched against titles. The query replaces the
// filter terms of base and keeps its sort, limit and whitelist setting unless
// "all" is given.
func parseFilterQuery(base feed.Filter, input string) feed.Filter {
	out := feed.Filter{
		WhitelistOnly: base.WhitelistOnly,
		Sort:          base.Sort,
		Limit:         base.Limit,
	}
	var text []string
	for _, term := range strings.Fields(input) {
		name, value, ok := strings.Cut(term, ":")
		if !ok {
			if strings.EqualFold(term, "all") {
				out.WhitelistOnly = false
				continue
			}
			text = append(text, term)
			continue
		}
		switch strings.ToLower(name) {
		case "tag":
			out.Tag = value
		case "group":
			out.Group = value
		case "min":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
				out.ViewMin = n
			}
		case "max":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
				out.ViewMax = n
			}
		case "state":
			if st, err := feed.ParseState(value); err == nil {
				out.State = st
			}
		default:
			text = append(text, term)
		}
	}
	out.Query = strings.Join(text, " ")
	return out
}

// formatFilterQuery is the inverse of parseFilterQuery, used to prefill the
// filter input.
func formatFilterQuery(f feed.Filter) string {
	var parts []string
	if q := strings.TrimSpace(f.Query); q != "" {
		parts = append(parts, q)
	}
	if f.Tag != "" {
		parts = append(parts, "tag:"+f.Tag)
	}
	if f.Group != "" {
		parts = append(parts, "group:"+f.Group)
	}
	if f.ViewMin > 0 {
		parts = append(parts, "min:"+strconv.FormatInt(f.ViewMin, 10))
	}
	if f.ViewMax > 0 {
		parts = append(parts, "max:"+strconv.FormatInt(f.ViewMax, 10))
	}
	if f.State != "" {
		parts = append(parts, "state:"+string(f.State))
	}
	if !f.WhitelistOnly {
		parts = append(parts, "all")
	}
	return strings.Join(parts, " ")
}
