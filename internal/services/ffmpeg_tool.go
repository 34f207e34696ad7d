package services

import (
	"context"

	"go.mau.fi/util/ffmpeg"

	"file-message/internal/logger"
)

// VideoTool is the subset of ffmpeg/ffprobe the media prober needs.
type VideoTool interface {
	Supported() bool
	ProbeSupported() bool
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
	// ExtractFrame writes the first decodable frame of input to output as PNG.
	ExtractFrame(ctx context.Context, input, output string) error
}

var frameOutputArgs = []string{"-an", "-frames:v", "1", "-f", "image2", "-c:v", "png"}

type FFmpegTool struct{}

// NewFFmpegTool points the ffmpeg helpers at explicit binaries. Empty paths
// keep whatever was found on PATH.
func NewFFmpegTool(ffmpegPath, ffprobePath string) *FFmpegTool {
	if ffmpegPath != "" {
		ffmpeg.SetPath(ffmpegPath)
	}
	if ffprobePath != "" {
		ffmpeg.SetProbePath(ffprobePath)
	}
	return &FFmpegTool{}
}

func (t *FFmpegTool) Supported() bool {
	return ffmpeg.Supported()
}

func (t *FFmpegTool) ProbeSupported() bool {
	return ffmpeg.ProbeSupported()
}

func (t *FFmpegTool) Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error) {
	return ffmpeg.Probe(logger.MediaContext(ctx), path)
}

func (t *FFmpegTool) ExtractFrame(ctx context.Context, input, output string) error {
	return ffmpeg.ConvertPathWithDestination(logger.MediaContext(ctx), input, output, nil, frameOutputArgs, false)
}
