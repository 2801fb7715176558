// Package merger copies the download links of a source plugin manifest into a
// build output manifest and rewrites the latter as a one-record JSON array.
package merger
