package domain

import "time"

// UploadFile is one candidate file of an upload batch. It lives only for the
// duration of the request that carries it.
type UploadFile struct {
	Name        string // Original filename provided by the owner
	ContentType string // Declared MIME type (e.g., "image/jpeg")
	Size        int64  // Declared size in bytes
	Data        []byte
}

// UploadState is a step of the per-file upload state machine.
type UploadState string

const (
	StateValidating UploadState = "validating"
	StateWriting    UploadState = "writing"
	StateVerifying  UploadState = "verifying"
	StateSucceeded  UploadState = "succeeded"
	StateFailed     UploadState = "failed"
)

// FailureReason is the terminal cause of a failed file.
type FailureReason string

const (
	ReasonNone               FailureReason = ""
	ReasonInvalidFileType    FailureReason = "invalid_file_type"
	ReasonFileTooLarge       FailureReason = "file_too_large"
	ReasonCorruptImage       FailureReason = "corrupt_image"
	ReasonUploadExhausted    FailureReason = "upload_exhausted"
	ReasonVerificationFailed FailureReason = "verification_failed"
)

// UploadOutcome is the result for a single file: either a public URL or a
// failure reason. Outcomes are not modified after the pipeline returns them.
type UploadOutcome struct {
	Index    int           `json:"index"`
	FileName string        `json:"fileName"`
	State    UploadState   `json:"state"`
	Key      string        `json:"key,omitempty"`
	URL      string        `json:"url,omitempty"`
	Reason   FailureReason `json:"reason,omitempty"`
	Message  string        `json:"message,omitempty"`
	Attempts int           `json:"attempts"`
}

// Succeeded reports whether the file reached StateSucceeded.
func (o UploadOutcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// BatchResult summarizes one upload action.
type BatchResult struct {
	Outcomes          []UploadOutcome `json:"outcomes"`
	Succeeded         int             `json:"succeeded"`
	Failed            int             `json:"failed"`
	Photos            PhotoList       `json:"photos"`
	ProfileSaveFailed bool            `json:"profileSaveFailed"`
	CompletedAt       time.Time       `json:"completedAt"`
}

// SuccessfulURLs returns the URLs of succeeded outcomes in input order.
func (r *BatchResult) SuccessfulURLs() []string {
	urls := make([]string, 0, r.Succeeded)
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			urls = append(urls, o.URL)
		}
	}
	return urls
}
