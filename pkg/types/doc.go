// Package types defines the records, directory layout, configuration, and
// standard errors shared by every component of the data pond: the immutable
// raw store, its metadata records, and the view pointers that map stable
// semantic names onto concrete files.
package types
