// Package transcode turns an export request into a single playable
// output file by orchestrating an external transcoder through ordered
// stages: download, per-clip processing, concatenation, optional
// subtitle burn-in and upload.
package transcode

import "errors"

// Stage names, in pipeline order. failed is reachable from any stage.
const (
	StageDownloading   = "downloading"
	StageProcessing    = "processing"
	StageConcatenating = "concatenating"
	StageBurning       = "burning_subtitles"
	StageUploading     = "uploading"
	StageCompleted     = "completed"
	StageFailed        = "failed"
)

// ErrTranscoderUnavailable is the strict-mode precondition failure when
// no ffmpeg binary can be found and mock mode is not allowed.
var ErrTranscoderUnavailable = errors.New("transcode: no transcoder binary available")

// Result is the terminal outcome of a successful run. IsMock flags a
// degraded pass-through export that must never be mistaken for a real
// one.
type Result struct {
	URL    string `json:"url"`
	IsMock bool   `json:"is_mock"`
}

// EncodeSpec describes one per-clip trim+encode unit. Narration, when
// set, is mixed against the clip's native audio: native gain = 1-Mix,
// narration gain = Mix.
type EncodeSpec struct {
	Input     string
	Narration string
	Output    string
	TrimStart float64
	Duration  float64
	Mix       float64
}
