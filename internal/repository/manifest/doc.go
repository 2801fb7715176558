// Package manifest implements persistence for plugin manifests.
//
// The FileRepository reads a manifest from disk, and replaces it atomically
// with go-update: the new content is written next to the original, verified
// against its SHA-512 checksum and renamed over it.
package manifest
