package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Tags and sent-step offsets are stored as comma-delimited text columns.
// That encoding stays inside Encode/Parse; everything above the repository
// layer works with these set types.

// TagSet is an unordered set of string labels.
type TagSet map[string]struct{}

func NewTagSet(tags ...string) TagSet {
	s := TagSet{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

func ParseTagSet(encoded string) TagSet {
	return NewTagSet(strings.Split(encoded, ",")...)
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// HasAll reports whether every tag in other is present.
func (s TagSet) HasAll(other TagSet) bool {
	for t := range other {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one tag in other is present.
func (s TagSet) HasAny(other TagSet) bool {
	for t := range other {
		if s.Has(t) {
			return true
		}
	}
	return false
}

func (s TagSet) Add(tag string) {
	tag = strings.TrimSpace(tag)
	if tag != "" {
		s[tag] = struct{}{}
	}
}

// Slice returns the tags sorted, for stable output.
func (s TagSet) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s TagSet) Encode() string {
	return strings.Join(s.Slice(), ",")
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *TagSet) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*s = NewTagSet(items...)
	return nil
}

// StepSet is the set of drip-step day offsets already delivered to a
// recipient. It only ever grows.
type StepSet map[int]struct{}

func NewStepSet(steps ...int) StepSet {
	s := StepSet{}
	for _, d := range steps {
		s[d] = struct{}{}
	}
	return s
}

func ParseStepSet(encoded string) StepSet {
	s := StepSet{}
	for _, part := range strings.Split(encoded, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if d, err := strconv.Atoi(part); err == nil {
			s[d] = struct{}{}
		}
	}
	return s
}

func (s StepSet) Has(daysAfter int) bool {
	_, ok := s[daysAfter]
	return ok
}

func (s StepSet) Add(daysAfter int) {
	s[daysAfter] = struct{}{}
}

func (s StepSet) Slice() []int {
	out := make([]int, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func (s StepSet) Encode() string {
	parts := make([]string, 0, len(s))
	for _, d := range s.Slice() {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func (s StepSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *StepSet) UnmarshalJSON(b []byte) error {
	var items []int
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*s = NewStepSet(items...)
	return nil
}
