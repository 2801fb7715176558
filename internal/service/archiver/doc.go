// Package archiver packs a build output directory into a deflate-compressed
// zip placed inside that directory.
//
// The archive never contains itself or any other zip. Stale artifacts and
// temporary archives abandoned by interrupted builds are removed up front, and
// zips found during the walk are skipped. The new archive is assembled in a
// temporary file that is renamed into place only after it is complete.
//
// Symlinks to regular files are followed and packed with the target's contents
// under the link's own name. Symlinks to directories are not descended into,
// and a dangling symlink fails the build.
package archiver
