// Package job holds the queue-facing job primitives: deterministic job
// identity, the retry policy, and the wake notifier used by the worker to
// block until work arrives.
package job

import (
	"crypto/sha256"
	"encoding/hex"
)

// IDPrefix namespaces tagging jobs on the shared queue.
const IDPrefix = "tag-"

// DeriveID maps a repository id to its queue job id. The mapping is stable so
// concurrent producers for the same repository collapse onto one job.
func DeriveID(repositoryID string) string {
	sum := sha256.Sum256([]byte(repositoryID))
	return IDPrefix + hex.EncodeToString(sum[:])
}
