package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mau.fi/util/ffmpeg"

	"file-message/internal/models"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeTool struct {
	probeResult *ffmpeg.ProbeResult
	probeErr    error
	frame       []byte
	frameErr    error
	noFrame     bool
	blockFrame  bool
	noFFmpeg    bool
	noFFprobe   bool

	mutex  sync.Mutex
	inputs []string
	probes int
	frames int
}

func (f *fakeTool) Supported() bool      { return !f.noFFmpeg }
func (f *fakeTool) ProbeSupported() bool { return !f.noFFprobe }

func (f *fakeTool) Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error) {
	f.mutex.Lock()
	f.inputs = append(f.inputs, path)
	f.probes++
	f.mutex.Unlock()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input not readable: %w", err)
	}
	return f.probeResult, f.probeErr
}

func (f *fakeTool) ExtractFrame(ctx context.Context, input, output string) error {
	f.mutex.Lock()
	f.inputs = append(f.inputs, input)
	f.frames++
	f.mutex.Unlock()
	if f.blockFrame {
		<-ctx.Done()
		return errors.New("signal: killed")
	}
	if f.frameErr != nil {
		return f.frameErr
	}
	if f.noFrame {
		return nil
	}
	return os.WriteFile(output, f.frame, 0o644)
}

func (f *fakeTool) seenInputs() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.inputs...)
}

func videoProbe(seconds float64) *ffmpeg.ProbeResult {
	return &ffmpeg.ProbeResult{
		Streams: []*ffmpeg.Stream{
			{CodecType: "audio", Duration: seconds + 3},
			{CodecType: "video", Duration: seconds, Width: 640, Height: 360},
		},
		Format: &ffmpeg.Format{Duration: seconds + 3},
	}
}

type sequenceIDs struct {
	mutex sync.Mutex
	next  int
}

func (s *sequenceIDs) NewID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.next++
	return fmt.Sprintf("id-%d", s.next)
}

type fakeRefs struct {
	mutex   sync.Mutex
	next    int
	minted  map[string]*models.RawFile
	revoked []string
}

func newFakeRefs() *fakeRefs {
	return &fakeRefs{minted: make(map[string]*models.RawFile)}
}

func (r *fakeRefs) Mint(file *models.RawFile) string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.next++
	ref := fmt.Sprintf("blob:ref-%d", r.next)
	r.minted[ref] = file
	return ref
}

func (r *fakeRefs) Revoke(ref string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.revoked = append(r.revoked, ref)
}

type fakeHost struct {
	native     bool
	persistDir string
	persistErr error
	persisted  []*models.RawFile
	discarded  []string
}

func (h *fakeHost) HasNativeFileAccess() bool { return h.native }

func (h *fakeHost) PersistBlobToDisk(ctx context.Context, file *models.RawFile) (string, error) {
	if h.persistErr != nil {
		return "", h.persistErr
	}
	h.persisted = append(h.persisted, file)
	return h.persistDir + "/" + file.Name, nil
}

func (h *fakeHost) DiscardPersisted(ctx context.Context, path string) error {
	h.discarded = append(h.discarded, path)
	return nil
}

// fakeSDK records the options it receives and echoes them back as payloads.
type fakeSDK struct {
	err error

	mutex        sync.Mutex
	imageFile    []models.ImageFileOptions
	videoFile    []models.VideoFileOptions
	fileFile     []models.FileFileOptions
	imagePath    []string
	videoPath    []models.VideoPathOptions
	filePath     []models.FilePathOptions
	pathPictures models.PictureInfo
}

func (s *fakeSDK) BuildImageMessageFromFile(ctx context.Context, opts models.ImageFileOptions) (*models.ImagePayload, error) {
	s.mutex.Lock()
	s.imageFile = append(s.imageFile, opts)
	s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &models.ImagePayload{
		SourcePicture:   opts.SourcePicture,
		BigPicture:      opts.BigPicture,
		SnapshotPicture: opts.SnapshotPicture,
		Source:          opts.File,
	}, nil
}

func (s *fakeSDK) BuildVideoMessageFromFile(ctx context.Context, opts models.VideoFileOptions) (*models.VideoPayload, error) {
	s.mutex.Lock()
	s.videoFile = append(s.videoFile, opts)
	s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &models.VideoPayload{
		VideoUUID:      opts.VideoUUID,
		VideoType:      opts.VideoType,
		VideoSize:      opts.VideoSize,
		Duration:       opts.Duration,
		SnapshotUUID:   opts.SnapshotUUID,
		SnapshotType:   opts.SnapshotType,
		SnapshotSize:   opts.SnapshotSize,
		SnapshotWidth:  opts.SnapshotWidth,
		SnapshotHeight: opts.SnapshotHeight,
		SnapshotURL:    opts.SnapshotURL,
		Video:          opts.VideoFile,
		Snapshot:       opts.SnapshotFile,
	}, nil
}

func (s *fakeSDK) BuildFileMessageFromFile(ctx context.Context, opts models.FileFileOptions) (*models.FilePayload, error) {
	s.mutex.Lock()
	s.fileFile = append(s.fileFile, opts)
	s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &models.FilePayload{
		UUID:     opts.UUID,
		FileName: opts.FileName,
		FileType: opts.FileType,
		FileSize: opts.FileSize,
		Source:   opts.File,
	}, nil
}

type fakePathSDK struct {
	fakeSDK
}

func (s *fakePathSDK) BuildImageMessageFromPath(ctx context.Context, path string) (*models.ImagePayload, error) {
	s.mutex.Lock()
	s.imagePath = append(s.imagePath, path)
	s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	pic := s.pathPictures
	pic.URL = "file://" + path
	return &models.ImagePayload{SourcePicture: pic, BigPicture: pic, SnapshotPicture: pic}, nil
}

func (s *fakePathSDK) BuildVideoMessageFromPath(ctx context.Context, opts models.VideoPathOptions) (*models.VideoPayload, error) {
	s.mutex.Lock()
	s.videoPath = append(s.videoPath, opts)
	s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &models.VideoPayload{
		VideoPath:    opts.VideoPath,
		VideoType:    opts.VideoType,
		Duration:     opts.Duration,
		SnapshotPath: opts.SnapshotPath,
		SnapshotURL:  "file://" + opts.SnapshotPath,
	}, nil
}

func (s *fakePathSDK) BuildFileMessageFromPath(ctx context.Context, opts models.FilePathOptions) (*models.FilePayload, error) {
	s.mutex.Lock()
	s.filePath = append(s.filePath, opts)
	s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &models.FilePayload{FilePath: opts.FilePath, FileName: opts.FileName}, nil
}
