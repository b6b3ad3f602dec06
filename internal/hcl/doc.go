// Package hcl provides the concrete HCL implementation of config.Loader. It
// parses the graph configuration and the kind definitions, decodes them with
// gohcl, and converts dynamic attribute values (attributes maps, keyed-by
// objects) from cty into Go values.
package hcl
