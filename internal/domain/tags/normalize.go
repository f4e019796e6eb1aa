// Package tags holds the pure tag transformations: normalization of model
// output and the diff against previously applied catalog tags.
package tags

import (
	"math"
	"strings"

	"github.com/apphub/tagging-service/internal/domain/model"
)

// NormalizeKey canonicalizes a tag key: lower-case, runs of non-alphanumeric
// characters collapsed to a single underscore, leading/trailing underscores
// trimmed. " Programming Language " becomes "programming_language".
func NormalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	pendingSep := false
	for _, r := range strings.ToLower(key) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeValue canonicalizes a tag value: trimmed and lower-cased.
func NormalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ClampConfidence forces a confidence into [0,1]. NaN is treated as absent.
func ClampConfidence(confidence *float64) *float64 {
	if confidence == nil {
		return nil
	}
	c := *confidence
	switch {
	case math.IsNaN(c):
		return nil
	case c < 0:
		c = 0
	case c > 1:
		c = 1
	}
	return &c
}

// Normalize canonicalizes a list of tags. Entries whose key or value
// normalizes to empty are dropped, duplicate (key, value) pairs keep the
// first occurrence, and confidences are clamped to [0,1]. Applying Normalize
// to its own output yields the same list.
func Normalize(in []model.TagPayload) []model.TagPayload {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.TagPayload, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		key := NormalizeKey(t.Key)
		value := NormalizeValue(t.Value)
		if key == "" || value == "" {
			continue
		}
		id := key + ":" + value
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, model.TagPayload{
			Key:        key,
			Value:      value,
			Confidence: ClampConfidence(t.Confidence),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NormalizeFiles canonicalizes per-file tag lists. Entries with an empty path
// or whose tag list normalizes to empty are dropped.
func NormalizeFiles(in []model.FileTagPayload) []model.FileTagPayload {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.FileTagPayload, 0, len(in))
	for _, f := range in {
		path := strings.TrimSpace(f.Path)
		if path == "" {
			continue
		}
		normalized := Normalize(f.Tags)
		if len(normalized) == 0 {
			continue
		}
		out = append(out, model.FileTagPayload{Path: path, Tags: normalized})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NormalizeProposal canonicalizes both halves of a model proposal.
func NormalizeProposal(p model.TagProposal) model.TagProposal {
	return model.TagProposal{
		RepositoryTags: Normalize(p.RepositoryTags),
		FileTags:       NormalizeFiles(p.FileTags),
	}
}
