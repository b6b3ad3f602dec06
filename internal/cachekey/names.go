package cachekey

import "strings"

const (
	// SchemaVersion is bumped whenever the digest layout changes.
	SchemaVersion = "v2"
	// CIConfigDir is the shared CI configuration directory included in every
	// file set.
	CIConfigDir = "taskcluster"
	// CachedTaskAttribute marks tasks that carry a cache block.
	CachedTaskAttribute = "cached_task"
)

// AdditionalFiles are top-level files included in every file set when they
// exist.
var AdditionalFiles = []string{".taskcluster.yml", "eslintrc.js"}

// RepoName extracts the repository name from a remote URL.
func RepoName(remoteURL string) string {
	name := strings.ReplaceAll(remoteURL, ".git", "")
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// CacheType returns the cache type of the repository at remoteURL.
func CacheType(remoteURL string) string {
	return RepoName(remoteURL) + "." + SchemaVersion
}

// CacheName returns the cache name of a task label.
func CacheName(label string) string {
	return strings.ReplaceAll(label, ":", "-")
}
