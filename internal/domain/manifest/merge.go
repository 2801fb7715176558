package manifest

const (
	// KeyDownloadLinkInstall carries the stable install URL.
	KeyDownloadLinkInstall = "DownloadLinkInstall"
	// KeyDownloadLinkTesting carries the testing channel URL.
	KeyDownloadLinkTesting = "DownloadLinkTesting"
	// KeyDownloadLinkUpdate carries the update URL.
	KeyDownloadLinkUpdate = "DownloadLinkUpdate"
)

// WellKnownKeys returns the download link keys copied by Merge, in copy order.
func WellKnownKeys() []string {
	return []string{
		KeyDownloadLinkInstall,
		KeyDownloadLinkTesting,
		KeyDownloadLinkUpdate,
	}
}

// Merge copies every well-known key that holds a non-null value in source onto
// the effective record of target and returns the keys it wrote.
// Absent and null source values leave target untouched.
func Merge(source *Record, target *Document) []string {
	applied := make([]string, 0, len(WellKnownKeys()))

	for _, key := range WellKnownKeys() {
		if !source.HasValue(key) {
			continue
		}

		value, _ := source.Get(key)
		target.Head().Set(key, value)

		applied = append(applied, key)
	}

	return applied
}
