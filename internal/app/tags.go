package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errMalformedTags = errors.New("tags must be a string or array")

// TagsInput holds tags exactly as a client sent them: either a JSON array of
// strings or one comma-separated string. Any other JSON value is remembered as
// malformed and reported during validation rather than while decoding.
type TagsInput struct {
	values    []string
	text      string
	isText    bool
	malformed bool
}

func TagList(values ...string) *TagsInput {
	return &TagsInput{values: values}
}

func TagText(text string) *TagsInput {
	return &TagsInput{text: text, isText: true}
}

func (t *TagsInput) UnmarshalJSON(data []byte) error {
	*t = TagsInput{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &t.text); err != nil {
			return err
		}
		t.isText = true
	case '[':
		if err := json.Unmarshal(data, &t.values); err != nil {
			t.values = nil
			t.malformed = true
		}
	default:
		t.malformed = true
	}
	return nil
}

// ParseTags normalizes client tags into a trimmed list without empty entries.
// Order and duplicates are kept. A nil input yields an empty list.
func ParseTags(in *TagsInput) ([]string, error) {
	if in == nil {
		return []string{}, nil
	}
	if in.malformed {
		return nil, errMalformedTags
	}
	if in.isText {
		return SplitTags(in.text), nil
	}
	return compactTags(in.values), nil
}

func SplitTags(text string) []string {
	return compactTags(strings.Split(text, ","))
}

func compactTags(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
