package uploader

// UploaderBuilderOption is a functional option for configuring an Uploader via NewUploader.
type UploaderBuilderOption func(*uploader)

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - UploaderBuilderOption: a function that applies the option to an uploader
func WithForceFallbackAdapter(force bool) UploaderBuilderOption {
	return func(u *uploader) {
		u.forceFallbackAdapter = force
	}
}

// WithLabel sets the prefix used for every wgpu object label.
func WithLabel(label string) UploaderBuilderOption {
	return func(u *uploader) {
		if label != "" {
			u.label = label
		}
	}
}
