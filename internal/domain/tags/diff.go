package tags

import "github.com/apphub/tagging-service/internal/domain/model"

// RepositoryDiff is the reconciliation plan for a repository's catalog tags.
type RepositoryDiff struct {
	Apply  []model.TagPayload
	Remove []model.TagPayload
}

// DiffRepositoryTags reconciles the normalized proposal against the tags the
// catalog currently reports. Every proposed tag is applied (the catalog
// upserts), and existing tags owned by this service that no longer appear in
// the proposal are removed. Tags written by other sources are never touched.
// Identity is the (key, value) pair.
func DiffRepositoryTags(proposed []model.TagPayload, existing []model.RepositoryTag) RepositoryDiff {
	diff := RepositoryDiff{Apply: proposed}
	if len(existing) == 0 {
		return diff
	}
	keep := make(map[string]struct{}, len(proposed))
	for _, t := range proposed {
		keep[t.Key+":"+t.Value] = struct{}{}
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		if !ownedBySelf(t.Source) {
			continue
		}
		key := NormalizeKey(t.Key)
		value := NormalizeValue(t.Value)
		if key == "" || value == "" {
			continue
		}
		id := key + ":" + value
		if _, ok := keep[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		diff.Remove = append(diff.Remove, model.TagPayload{Key: key, Value: value})
	}
	return diff
}

// ownedBySelf reports whether a catalog tag may be removed by this service.
// Tags without a source predate source tracking and are treated as ours.
func ownedBySelf(source string) bool {
	return source == "" || source == model.TagSourceService
}
