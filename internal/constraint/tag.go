package constraint

import (
	"encoding/json"
	"slices"
	"strings"
)

const maxTagLen = 48

// Tag is a normalized preference or attribute label: lower-case ASCII letters,
// digits and hyphens.
type Tag string

// ParseTag trims and lower-cases s and checks it against the tag alphabet.
// Spaces and underscores are folded into hyphens.
func ParseTag(s string) (Tag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	if s == "" || len(s) > maxTagLen {
		return "", ErrInvalidTag
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", ErrInvalidTag
		}
	}
	return Tag(s), nil
}

// TagSet is a sorted set of distinct tags. The zero value is the empty set.
type TagSet struct {
	tags []Tag
}

// NewTagSet parses and de-duplicates raw tags.
func NewTagSet(raw ...string) (TagSet, error) {
	tags := make([]Tag, 0, len(raw))
	for _, s := range raw {
		t, err := ParseTag(s)
		if err != nil {
			return TagSet{}, err
		}
		tags = append(tags, t)
	}
	return SetOf(tags...), nil
}

// MustTagSet is NewTagSet for literals; it panics on invalid input.
func MustTagSet(raw ...string) TagSet {
	s, err := NewTagSet(raw...)
	if err != nil {
		panic("constraint: invalid tag literal in " + strings.Join(raw, ","))
	}
	return s
}

// SetOf builds a set from already-validated tags.
func SetOf(tags ...Tag) TagSet {
	if len(tags) == 0 {
		return TagSet{}
	}
	cp := slices.Clone(tags)
	slices.Sort(cp)
	return TagSet{tags: slices.Compact(cp)}
}

func (s TagSet) Len() int      { return len(s.tags) }
func (s TagSet) IsEmpty() bool { return len(s.tags) == 0 }

// Tags returns a copy of the members in sorted order.
func (s TagSet) Tags() []Tag { return slices.Clone(s.tags) }

func (s TagSet) Has(t Tag) bool {
	_, ok := slices.BinarySearch(s.tags, t)
	return ok
}

// ContainsAll reports whether every member of other is in s.
func (s TagSet) ContainsAll(other TagSet) bool {
	for _, t := range other.tags {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// Intersect returns the members present in both sets.
func (s TagSet) Intersect(other TagSet) []Tag {
	var out []Tag
	for _, t := range s.tags {
		if other.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns the members as plain strings.
func (s TagSet) Strings() []string {
	out := make([]string, len(s.tags))
	for i, t := range s.tags {
		out[i] = string(t)
	}
	return out
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewTagSet(raw...)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
