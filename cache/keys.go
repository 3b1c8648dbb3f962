package cache

import "github.com/poiesic/resumatch/core"

// Key prefixes for cache namespaces
const (
	EmbeddingPrefix = "emb:"
	ResultPrefix    = "res:"
	ProfilePrefix   = "prof:"
)

// embeddingKey formats emb:<model>:<fingerprint>.
func embeddingKey(modelID string, fp core.Fingerprint) string {
	return EmbeddingPrefix + modelID + ":" + string(fp)
}

// resultKey formats res:[<namespace>:]<document>:<job>.
func resultKey(namespace string, docFP, jobFP core.Fingerprint) string {
	if namespace == "" {
		return ResultPrefix + string(docFP) + ":" + string(jobFP)
	}
	return ResultPrefix + namespace + ":" + string(docFP) + ":" + string(jobFP)
}

// profileKey formats prof:<kind>:<model>:<fingerprint>.
func profileKey(kind core.ProfileKind, modelID string, fp core.Fingerprint) string {
	return ProfilePrefix + kind.String() + ":" + modelID + ":" + string(fp)
}
