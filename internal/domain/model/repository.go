package model

// RepositoryMetadata is the catalog's view of a repository. RepoURL may arrive
// under the legacy repositoryUrl key; ResolveRepoURL handles both.
type RepositoryMetadata struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	RepoURL       string          `json:"repoUrl,omitempty"`
	LegacyRepoURL string          `json:"repositoryUrl,omitempty"`
	DefaultBranch string          `json:"defaultBranch,omitempty"`
	Readme        string          `json:"readme,omitempty"`
	Description   string          `json:"description,omitempty"`
	Tags          []RepositoryTag `json:"tags,omitempty"`
}

// ResolveRepoURL returns the repository URL, preferring the current key over the legacy one.
func (m *RepositoryMetadata) ResolveRepoURL() string {
	if m.RepoURL != "" {
		return m.RepoURL
	}
	return m.LegacyRepoURL
}

// RepositorySummary is one entry of the catalog's paged repository listing.
type RepositorySummary struct {
	ID           string `json:"id"`
	IngestStatus string `json:"ingestStatus,omitempty"`
}

// FileHit is one result of a file-explorer relevance search.
type FileHit struct {
	Path    string   `json:"path"`
	Score   *float64 `json:"score,omitempty"`
	Preview string   `json:"preview,omitempty"`
}

// FileSample is a selected file with the snippet fed to the prompt.
type FileSample struct {
	Path    string
	Snippet string
}
