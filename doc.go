// Package cvssmerge holds the error domain shared by the packages of this
// module.
//
// The module scores CVSS vectors and reconciles the vectors published for a
// vulnerability by several sources into one:
//
//   - [github.com/quay/cvssmerge/cvss] parses, serializes, scores and merges
//     CVSS v2, v3.x and v4 vectors.
//   - [github.com/quay/cvssmerge/selector] reduces a set of tagged vectors to a
//     single vector per CVSS family using ordered rules.
//   - [github.com/quay/cvssmerge/reconcile] runs selectors and picks one
//     family's result by policy.
//   - [github.com/quay/cvssmerge/severity] maps scores onto labeled ranges.
//   - [github.com/quay/cvssmerge/config] loads and validates the
//     configuration for all of the above.
package cvssmerge
