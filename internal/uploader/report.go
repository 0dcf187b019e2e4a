package uploader

// Status is the outcome for one file.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusSkipped  Status = "skipped"
	StatusDryRun   Status = "dry-run"
	StatusFailed   Status = "failed"
)

// Result describes what happened to one file.
type Result struct {
	Path   string
	MD5    string
	Status Status
	// VideoID is the new video, or the existing one for skipped files.
	VideoID string
	Err     error
}

// Report summarises a run. Dry-run results are listed under Uploaded.
type Report struct {
	Uploaded []Result
	Skipped  []Result
	Failed   []Result
}

func (r *Report) add(res Result) {
	switch res.Status {
	case StatusSkipped:
		r.Skipped = append(r.Skipped, res)
	case StatusFailed:
		r.Failed = append(r.Failed, res)
	default:
		r.Uploaded = append(r.Uploaded, res)
	}
}

// Total is the number of files handled.
func (r Report) Total() int {
	return len(r.Uploaded) + len(r.Skipped) + len(r.Failed)
}
