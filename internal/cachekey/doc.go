// Package cachekey derives the content-addressed cache key of a task.
//
// A cache key is the sha256 over the sorted list of files a task depends on:
// the files of its sub-project directory, the shared CI configuration
// directory and a few top-level files. Each file contributes a line of the
// form "<sha256 of content> <relative path>". The key is scoped by the cache
// type, which is derived from the repository name, so identical trees in
// different repositories never share a cache entry.
package cachekey
