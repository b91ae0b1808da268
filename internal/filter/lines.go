// Package filter narrows which relayed console lines make it into the log.
package filter

import (
	"fmt"
	"regexp"
)

// Lines filters console output by regular expressions. A nil *Lines allows
// everything.
type Lines struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// New compiles include and exclude patterns into a filter. An empty pattern
// leaves that side unrestricted.
func New(include, exclude string) (*Lines, error) {
	var l Lines
	var err error
	if include != "" {
		if l.include, err = regexp.Compile(include); err != nil {
			return nil, fmt.Errorf("compile include pattern: %w", err)
		}
	}
	if exclude != "" {
		if l.exclude, err = regexp.Compile(exclude); err != nil {
			return nil, fmt.Errorf("compile exclude pattern: %w", err)
		}
	}
	return &l, nil
}

// Allow reports whether the line passes the filter.
func (l *Lines) Allow(line string) bool {
	if l == nil {
		return true
	}
	if l.include != nil && !l.include.MatchString(line) {
		return false
	}
	if l.exclude != nil && l.exclude.MatchString(line) {
		return false
	}
	return true
}
