package models

// FailedFile reports a file that could not be converted in a batch request.
type FailedFile struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
}

type CreateByPathRequest struct {
	Paths []string `json:"paths" binding:"required,min=1,dive,required"`
}

type CreateFileMessagesResponse struct {
	Messages    []MessagePayload `json:"messages"`
	FailedFiles []FailedFile     `json:"failedFiles"`
}

// DeleteSnapshotsRequest selects persisted snapshots to remove. An empty
// request removes all of them.
type DeleteSnapshotsRequest struct {
	Filename string `json:"filename,omitempty"`
	Video    string `json:"video,omitempty"`
}

// DeleteUploadsRequest selects upload copies to remove. An empty request
// removes all of them.
type DeleteUploadsRequest struct {
	Filename string `json:"filename,omitempty"`
}

// DeleteFilesResponse reports the outcome of a cleanup request.
type DeleteFilesResponse struct {
	Message      string       `json:"message"`
	DeletedFiles []string     `json:"deletedFiles"`
	DeletedCount int          `json:"deletedCount"`
	FailedFiles  []FailedFile `json:"failedFiles,omitempty"`
}
