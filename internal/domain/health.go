package domain

import "time"

// StorageHealth is a point-in-time verdict on whether object storage looks
// usable. It is advisory: an upload may still fail when CanWrite is true.
type StorageHealth struct {
	BucketExists  bool      `json:"bucketExists"`
	CanRead       bool      `json:"canRead"`
	CanWrite      bool      `json:"canWrite"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
}

// Checked reports whether at least one probe has completed.
func (h StorageHealth) Checked() bool {
	return !h.LastCheckedAt.IsZero()
}
