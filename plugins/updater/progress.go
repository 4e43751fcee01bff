package updater

// DownloadKind is the phase of a download progress event.
type DownloadKind string

const (
	DownloadStarted  DownloadKind = "Started"
	DownloadProgress DownloadKind = "Progress"
	DownloadFinished DownloadKind = "Finished"
)

// DownloadEvent reports download progress. ContentLength is 0 when the
// server did not declare a size.
type DownloadEvent struct {
	Kind          DownloadKind `json:"event"`
	ChunkLength   int          `json:"chunk_length,omitempty"`
	Downloaded    int64        `json:"downloaded"`
	ContentLength int64        `json:"content_length,omitempty"`
}

// Percent is the completed share in [0, 100], or -1 if the size is unknown.
func (e DownloadEvent) Percent() float64 {
	switch {
	case e.Kind == DownloadFinished:
		return 100
	case e.ContentLength <= 0:
		return -1
	default:
		return float64(e.Downloaded) / float64(e.ContentLength) * 100
	}
}

// progressWriter turns the bytes teed from the download into Progress events.
type progressWriter struct {
	total      int64
	downloaded int64
	report     func(DownloadEvent)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.downloaded += int64(len(p))
	w.report(DownloadEvent{
		Kind:          DownloadProgress,
		ChunkLength:   len(p),
		Downloaded:    w.downloaded,
		ContentLength: w.total,
	})
	return len(p), nil
}
