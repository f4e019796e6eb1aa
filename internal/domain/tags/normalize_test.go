package tags

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apphub/tagging-service/internal/domain/model"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already canonical", in: "language", want: "language"},
		{name: "mixed case with padding", in: " Framework ", want: "framework"},
		{name: "spaces become underscores", in: "Programming Language", want: "programming_language"},
		{name: "symbol runs collapse", in: "CI/CD -- Pipeline", want: "ci_cd_pipeline"},
		{name: "trailing symbols trimmed", in: "c++", want: "c"},
		{name: "leading underscores trimmed", in: "__hidden__", want: "hidden"},
		{name: "only symbols", in: "!!!", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ClampConfidence(nil))
	assert.Nil(t, ClampConfidence(floatPtr(math.NaN())))
	assert.Equal(t, 0.0, *ClampConfidence(floatPtr(-0.5)))
	assert.Equal(t, 1.0, *ClampConfidence(floatPtr(2)))
	assert.Equal(t, 0.75, *ClampConfidence(floatPtr(0.75)))
}

func TestNormalizeMergesCaseVariants(t *testing.T) {
	t.Parallel()

	out := Normalize([]model.TagPayload{
		{Key: "Language", Value: "TypeScript", Confidence: floatPtr(2)},
		{Key: "language", Value: "typescript"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "language", out[0].Key)
	assert.Equal(t, "typescript", out[0].Value)
	require.NotNil(t, out[0].Confidence)
	assert.Equal(t, 1.0, *out[0].Confidence)
}

func TestNormalizeDropsEmptyEntries(t *testing.T) {
	t.Parallel()

	out := Normalize([]model.TagPayload{
		{Key: " Framework ", Value: " Fastify "},
		{Key: "", Value: "orphan"},
		{Key: "!!!", Value: "symbols-only-key"},
		{Key: "empty_value", Value: "   "},
	})

	require.Len(t, out, 1)
	assert.Equal(t, model.TagPayload{Key: "framework", Value: "fastify"}, out[0])
}

func TestNormalizeKeepsDistinctValuesForSameKey(t *testing.T) {
	t.Parallel()

	out := Normalize([]model.TagPayload{
		{Key: "language", Value: "go"},
		{Key: "language", Value: "typescript"},
	})

	require.Len(t, out, 2)
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Normalize(nil))
	assert.Nil(t, Normalize([]model.TagPayload{}))
	assert.Nil(t, Normalize([]model.TagPayload{{Key: "", Value: ""}}))
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	in := []model.TagPayload{
		{Key: " Programming Language ", Value: "Go", Confidence: floatPtr(1.5)},
		{Key: "framework", Value: "FASTIFY", Confidence: floatPtr(math.NaN())},
		{Key: "CI/CD", Value: "github actions", Confidence: floatPtr(-1)},
	}

	once := Normalize(in)
	twice := Normalize(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeFilesIdempotent(t *testing.T) {
	t.Parallel()

	in := []model.FileTagPayload{
		{Path: "cmd/main.go", Tags: []model.TagPayload{{Key: "Entry Point", Value: "TRUE"}}},
		{Path: "docs/readme.md", Tags: []model.TagPayload{{Key: "", Value: ""}}},
	}

	once := NormalizeFiles(in)
	twice := NormalizeFiles(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeFilesDropsEmptied(t *testing.T) {
	t.Parallel()

	out := NormalizeFiles([]model.FileTagPayload{
		{Path: "src/app.ts", Tags: []model.TagPayload{{Key: "Role", Value: "Entry"}}},
		{Path: "src/util.ts", Tags: []model.TagPayload{{Key: "!!!", Value: "x"}}},
		{Path: "  ", Tags: []model.TagPayload{{Key: "role", Value: "helper"}}},
		{Path: "src/empty.ts"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "src/app.ts", out[0].Path)
	require.Len(t, out[0].Tags, 1)
	assert.Equal(t, model.TagPayload{Key: "role", Value: "entry"}, out[0].Tags[0])
}

func TestNormalizeProposal(t *testing.T) {
	t.Parallel()

	p := NormalizeProposal(model.TagProposal{
		RepositoryTags: []model.TagPayload{{Key: "Language", Value: "Go"}},
		FileTags: []model.FileTagPayload{
			{Path: "main.go", Tags: []model.TagPayload{{Key: "Entry", Value: "Yes"}}},
		},
	})

	require.Len(t, p.RepositoryTags, 1)
	assert.Equal(t, "language", p.RepositoryTags[0].Key)
	require.Len(t, p.FileTags, 1)
	assert.Equal(t, "entry", p.FileTags[0].Tags[0].Key)
}
