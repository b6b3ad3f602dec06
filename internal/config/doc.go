// Package config defines the format-agnostic model of a task-graph
// definition: the graph-wide configuration and the kinds whose job templates
// the transforms expand. Concrete loaders, such as the HCL one, translate
// their files into this model.
package config
