package probe

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ExpectedVersion decides whether a server version string is typical.
// A non-nil Pattern replaces the Majors rule.
type ExpectedVersion struct {
	Majors  []int
	Pattern *regexp.Regexp
}

// Verdict is informational; an atypical version is still a successful probe.
type Verdict struct {
	Major    int
	Atypical bool
	Note     string
}

const (
	NoteNonStandard   = "non-standard response"
	NoteBadFormat     = "unexpected version format"
	NoteAtypicalMajor = "atypical PostgreSQL version"
	NoteNoMatch       = "version does not match pattern"
)

func NewExpectedVersion(majors []int, pattern string) (ExpectedVersion, error) {
	ev := ExpectedVersion{Majors: majors}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return ev, fmt.Errorf("version pattern: %w", err)
		}
		ev.Pattern = re
	}
	return ev, nil
}

func (e ExpectedVersion) Check(version string) Verdict {
	major, parseNote := parseMajor(version)
	v := Verdict{Major: major}

	if e.Pattern != nil {
		if !e.Pattern.MatchString(version) {
			v.Atypical, v.Note = true, NoteNoMatch
		}
		return v
	}
	switch {
	case parseNote != "":
		v.Atypical, v.Note = true, parseNote
	case !slices.Contains(e.Majors, major):
		v.Atypical, v.Note = true, NoteAtypicalMajor
	}
	return v
}

// parseMajor reads N from "PostgreSQL N.M on ...".
func parseMajor(version string) (int, string) {
	_, rest, found := strings.Cut(version, "PostgreSQL")
	if !found {
		return 0, NoteNonStandard
	}
	head, _, _ := strings.Cut(rest, ".")
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return 0, NoteBadFormat
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, NoteBadFormat
	}
	return n, ""
}
