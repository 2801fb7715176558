// Package manifest models plugin manifests: JSON documents that are either a
// single object or an array whose first element is an object.
//
// Record keeps the top-level key order of an object and stores every value as
// raw JSON, so nested structures and numbers round-trip untouched. Document
// captures the top-level shape, exposes the effective record to mutate and
// always encodes as an array. Merge copies the download links between records.
package manifest
