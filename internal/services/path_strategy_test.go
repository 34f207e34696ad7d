package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-message/internal/host"
	"file-message/internal/models"
)

func newStrategy(t *testing.T, sdk BlobMessageSDK, host HostEnvironment, refs *fakeRefs) PathStrategy {
	t.Helper()
	strategy, err := NewPathStrategy(StrategyDeps{SDK: sdk, Host: host, IDs: &sequenceIDs{}, Refs: refs})
	require.NoError(t, err)
	return strategy
}

func TestNewPathStrategySelection(t *testing.T) {
	blob := newStrategy(t, &fakePathSDK{}, &fakeHost{}, newFakeRefs())
	assert.False(t, blob.Native())

	native := newStrategy(t, &fakePathSDK{}, &fakeHost{native: true}, newFakeRefs())
	assert.True(t, native.Native())
}

func TestNewPathStrategyRejectsBlobOnlySDKOnNativeHost(t *testing.T) {
	_, err := NewPathStrategy(StrategyDeps{
		SDK:  &fakeSDK{},
		Host: &fakeHost{native: true},
		IDs:  &sequenceIDs{},
		Refs: newFakeRefs(),
	})
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestNewPathStrategyRequiresDependencies(t *testing.T) {
	_, err := NewPathStrategy(StrategyDeps{SDK: &fakeSDK{}, Host: &fakeHost{}})
	assert.Error(t, err)
}

func TestBlobImagePayload(t *testing.T) {
	sdk := &fakeSDK{}
	refs := newFakeRefs()
	strategy := newStrategy(t, sdk, &fakeHost{}, refs)
	file := models.NewRawFileFromBytes("cat.png", "image/png", make([]byte, 4096))

	payload, err := strategy.ResolveImagePayload(context.Background(), file, models.ImageMetadata{Width: 800, Height: 600})
	require.NoError(t, err)

	require.Len(t, sdk.imageFile, 1)
	opts := sdk.imageFile[0]
	assert.Same(t, file, opts.File)
	assert.Equal(t, opts.SourcePicture, opts.BigPicture)
	assert.Equal(t, opts.SourcePicture, opts.SnapshotPicture)
	assert.Equal(t, models.PictureInfo{
		UUID:   "id-1",
		Type:   "image/png",
		Size:   4096,
		Width:  800,
		Height: 600,
		URL:    "blob:ref-1",
	}, payload.SourcePicture)
	assert.Same(t, file, refs.minted["blob:ref-1"])
	assert.Empty(t, refs.revoked)
}

func TestBlobVideoPayload(t *testing.T) {
	sdk := &fakeSDK{}
	refs := newFakeRefs()
	strategy := newStrategy(t, sdk, &fakeHost{}, refs)
	video := models.NewRawFileFromBytes("clip.mp4", "video/mp4", make([]byte, 1000))
	snapshot := models.NewRawFileFromBytes("clip_snapshot.png", "image/png", make([]byte, 100))

	payload, err := strategy.ResolveVideoPayload(context.Background(), video, snapshot, 10, models.ImageMetadata{Width: 640, Height: 360})
	require.NoError(t, err)

	assert.Equal(t, int64(10), payload.Duration)
	assert.Equal(t, "video/mp4", payload.VideoType)
	assert.Equal(t, int64(1000), payload.VideoSize)
	assert.Equal(t, int64(100), payload.SnapshotSize)
	assert.Equal(t, 640, payload.SnapshotWidth)
	assert.Equal(t, 360, payload.SnapshotHeight)
	assert.Equal(t, "image/png", payload.SnapshotType)
	assert.Equal(t, "blob:ref-1", payload.SnapshotURL)
	assert.NotEqual(t, payload.VideoUUID, payload.SnapshotUUID)
	assert.Same(t, video, payload.Video)
	assert.Same(t, snapshot, payload.Snapshot)
	assert.Same(t, snapshot, refs.minted["blob:ref-1"])
}

func TestBlobFilePayload(t *testing.T) {
	sdk := &fakeSDK{}
	strategy := newStrategy(t, sdk, &fakeHost{}, newFakeRefs())
	file := models.NewRawFileFromBytes("report.pdf", "application/pdf", make([]byte, 300))

	payload, err := strategy.ResolveFilePayload(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", payload.FileName)
	assert.Equal(t, "application/pdf", payload.FileType)
	assert.Equal(t, int64(300), payload.FileSize)
	assert.Equal(t, "id-1", payload.UUID)
	assert.Same(t, file, payload.Source)
}

func TestBlobStrategyRevokesRefsOnSDKFailure(t *testing.T) {
	sdk := &fakeSDK{err: errors.New("sdk rejected options")}
	refs := newFakeRefs()
	strategy := newStrategy(t, sdk, &fakeHost{}, refs)
	ctx := context.Background()

	_, err := strategy.ResolveImagePayload(ctx, models.NewRawFileFromBytes("a.png", "image/png", []byte("x")), models.ImageMetadata{Width: 1, Height: 1})
	require.Error(t, err)
	_, err = strategy.ResolveVideoPayload(ctx,
		models.NewRawFileFromBytes("a.mp4", "video/mp4", []byte("x")),
		models.NewRawFileFromBytes("a_snapshot.png", "image/png", []byte("x")),
		1, models.ImageMetadata{Width: 1, Height: 1})
	require.Error(t, err)

	assert.ElementsMatch(t, []string{"blob:ref-1", "blob:ref-2"}, refs.revoked)
}

func TestNativeImagePayload(t *testing.T) {
	sdk := &fakePathSDK{}
	refs := newFakeRefs()
	strategy := newStrategy(t, sdk, &fakeHost{native: true}, refs)
	file := &models.RawFile{Name: "photo.jpg", MimeType: "image/jpeg", Size: 2048, Path: "/home/u/photo.jpg"}

	payload, err := strategy.ResolveImagePayload(context.Background(), file, models.ImageMetadata{Width: 100, Height: 50})
	require.NoError(t, err)

	assert.Equal(t, []string{"/home/u/photo.jpg"}, sdk.imagePath)
	assert.Equal(t, "blob:ref-1", payload.SourcePicture.URL)
	assert.Equal(t, "file:///home/u/photo.jpg", payload.BigPicture.URL)
	assert.Equal(t, 100, payload.SourcePicture.Width)
	assert.Equal(t, 50, payload.SourcePicture.Height)
	assert.Same(t, file, refs.minted["blob:ref-1"])
}

func TestNativeImagePayloadKeepsSDKDimensions(t *testing.T) {
	sdk := &fakePathSDK{}
	sdk.pathPictures = models.PictureInfo{Width: 300, Height: 200}
	strategy := newStrategy(t, sdk, &fakeHost{native: true}, newFakeRefs())
	file := &models.RawFile{Name: "photo.jpg", MimeType: "image/jpeg", Path: "/p/photo.jpg"}

	payload, err := strategy.ResolveImagePayload(context.Background(), file, models.ImageMetadata{Width: 1, Height: 1})
	require.NoError(t, err)
	assert.Equal(t, 300, payload.SourcePicture.Width)
	assert.Equal(t, 200, payload.SourcePicture.Height)
}

func TestNativeStrategyRequiresHostPath(t *testing.T) {
	strategy := newStrategy(t, &fakePathSDK{}, &fakeHost{native: true}, newFakeRefs())
	ctx := context.Background()
	file := models.NewRawFileFromBytes("a.png", "image/png", []byte("x"))

	_, err := strategy.ResolveImagePayload(ctx, file, models.ImageMetadata{})
	assert.ErrorIs(t, err, ErrNoHostPath)
	_, err = strategy.ResolveVideoPayload(ctx, file, file, 1, models.ImageMetadata{})
	assert.ErrorIs(t, err, ErrNoHostPath)
	_, err = strategy.ResolveFilePayload(ctx, file)
	assert.ErrorIs(t, err, ErrNoHostPath)
}

func TestNativeVideoPayloadPersistsSnapshot(t *testing.T) {
	sdk := &fakePathSDK{}
	host := &fakeHost{native: true, persistDir: "/var/snapshots"}
	refs := newFakeRefs()
	strategy := newStrategy(t, sdk, host, refs)
	video := &models.RawFile{Name: "clip.mov", MimeType: "video/quicktime", Size: 5000, Path: "/home/u/clip.mov"}
	snapshot := models.NewRawFileFromBytes("clip_snapshot.png", "image/png", []byte("png"))

	payload, err := strategy.ResolveVideoPayload(context.Background(), video, snapshot, 7, models.ImageMetadata{Width: 640, Height: 360})
	require.NoError(t, err)

	require.Len(t, sdk.videoPath, 1)
	assert.Equal(t, models.VideoPathOptions{
		VideoPath:    "/home/u/clip.mov",
		SnapshotPath: "/var/snapshots/clip_snapshot.png",
		VideoType:    "video/quicktime",
		Duration:     7,
	}, sdk.videoPath[0])
	assert.Equal(t, []*models.RawFile{snapshot}, host.persisted)
	assert.Equal(t, "blob:ref-1", payload.SnapshotURL)
	assert.Equal(t, 640, payload.SnapshotWidth)
	assert.Equal(t, 360, payload.SnapshotHeight)
}

func TestNativeVideoPayloadFallsBackWhenPersistFails(t *testing.T) {
	sdk := &fakePathSDK{}
	host := &fakeHost{native: true, persistErr: errors.New("permission denied")}
	strategy := newStrategy(t, sdk, host, newFakeRefs())
	video := &models.RawFile{Name: "clip.mov", MimeType: "video/quicktime", Path: "/home/u/clip.mov"}
	snapshot := models.NewRawFileFromBytes("clip_snapshot.png", "image/png", []byte("png"))

	payload, err := strategy.ResolveVideoPayload(context.Background(), video, snapshot, 3, models.ImageMetadata{Width: 2, Height: 2})
	require.NoError(t, err)
	require.Len(t, sdk.videoPath, 1)
	assert.Equal(t, "/clip_snapshot.png", sdk.videoPath[0].SnapshotPath)
	assert.Equal(t, "/clip_snapshot.png", payload.SnapshotPath)
}

func TestNativeVideoPayloadDiscardsSnapshotOnSDKFailure(t *testing.T) {
	sdk := &fakePathSDK{fakeSDK: fakeSDK{err: errors.New("sdk down")}}
	host := &fakeHost{native: true, persistDir: "/var/snapshots"}
	refs := newFakeRefs()
	strategy := newStrategy(t, sdk, host, refs)
	video := &models.RawFile{Name: "clip.mov", MimeType: "video/quicktime", Path: "/home/u/clip.mov"}
	snapshot := models.NewRawFileFromBytes("clip_snapshot.png", "image/png", []byte("png"))

	_, err := strategy.ResolveVideoPayload(context.Background(), video, snapshot, 3, models.ImageMetadata{})
	require.Error(t, err)
	assert.Equal(t, []string{"/var/snapshots/clip_snapshot.png"}, host.discarded)
	assert.Empty(t, refs.minted)
}

func TestNativeVideoPayloadLeavesNoSnapshotOnDiskOnSDKFailure(t *testing.T) {
	dir := t.TempDir()
	sdk := &fakePathSDK{fakeSDK: fakeSDK{err: errors.New("sdk down")}}
	strategy := newStrategy(t, sdk, host.NewEnvironment(true, dir), newFakeRefs())
	video := &models.RawFile{Name: "clip.mov", MimeType: "video/quicktime", Path: "/home/u/clip.mov"}
	snapshot := models.NewRawFileFromBytes("clip_snapshot.png", "image/png", []byte("png"))

	_, err := strategy.ResolveVideoPayload(context.Background(), video, snapshot, 3, models.ImageMetadata{})
	require.Error(t, err)
	require.Len(t, sdk.videoPath, 1)
	assert.NotEqual(t, "/clip_snapshot.png", sdk.videoPath[0].SnapshotPath)

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestNativeVideoPayloadKeepsFallbackPathOnSDKFailure(t *testing.T) {
	sdk := &fakePathSDK{fakeSDK: fakeSDK{err: errors.New("sdk down")}}
	host := &fakeHost{native: true, persistErr: errors.New("permission denied")}
	strategy := newStrategy(t, sdk, host, newFakeRefs())
	video := &models.RawFile{Name: "clip.mov", MimeType: "video/quicktime", Path: "/home/u/clip.mov"}
	snapshot := models.NewRawFileFromBytes("clip_snapshot.png", "image/png", []byte("png"))

	_, err := strategy.ResolveVideoPayload(context.Background(), video, snapshot, 3, models.ImageMetadata{})
	require.Error(t, err)
	assert.Empty(t, host.discarded)
}

func TestNativeFilePayload(t *testing.T) {
	sdk := &fakePathSDK{}
	refs := newFakeRefs()
	strategy := newStrategy(t, sdk, &fakeHost{native: true}, refs)
	file := &models.RawFile{Name: "report.pdf", MimeType: "application/pdf", Path: "/docs/report.pdf"}

	payload, err := strategy.ResolveFilePayload(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []models.FilePathOptions{{FilePath: "/docs/report.pdf", FileName: "report.pdf"}}, sdk.filePath)
	assert.Equal(t, "/docs/report.pdf", payload.FilePath)
	assert.Empty(t, refs.minted)
}
