// Package packaging holds the types shared by the merge and archive steps:
// the error taxonomy every step wraps its failures in, and ArtifactInfo
// describing a built archive.
package packaging
