// Package task defines the structured task descriptor that flows through the
// kind transforms: loaded from a job template, expanded per sub-project,
// decorated with cache keys and signing metadata, then rendered into the task
// graph.
package task
