package models

import "fmt"

type MessageKind string

const (
	MessageKindImage MessageKind = "image"
	MessageKindVideo MessageKind = "video"
	MessageKindFile  MessageKind = "file"
)

// Content types used by the messaging layer for media messages.
const (
	ContentTypePicture = 102
	ContentTypeVideo   = 104
	ContentTypeFile    = 105
)

// ImageMetadata holds the intrinsic pixel dimensions of a raster image.
type ImageMetadata struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoMetadata is what a conversion learns about a video: the size of its
// representative frame, its rounded duration and the frame itself as a PNG.
type VideoMetadata struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Duration int64    `json:"duration"`
	Snapshot *RawFile `json:"-"`
}

type PictureInfo struct {
	UUID   string `json:"uuid"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

type ImagePayload struct {
	ClientMsgID     string      `json:"clientMsgID"`
	ContentType     int         `json:"contentType"`
	CreateTime      int64       `json:"createTime"`
	SourcePath      string      `json:"sourcePath"`
	SourcePicture   PictureInfo `json:"sourcePicture"`
	BigPicture      PictureInfo `json:"bigPicture"`
	SnapshotPicture PictureInfo `json:"snapshotPicture"`

	// Source is the embedded content on hosts without filesystem paths.
	Source *RawFile `json:"-"`
}

type VideoPayload struct {
	ClientMsgID    string `json:"clientMsgID"`
	ContentType    int    `json:"contentType"`
	CreateTime     int64  `json:"createTime"`
	VideoPath      string `json:"videoPath"`
	VideoUUID      string `json:"videoUUID"`
	VideoURL       string `json:"videoUrl"`
	VideoType      string `json:"videoType"`
	VideoSize      int64  `json:"videoSize"`
	Duration       int64  `json:"duration"`
	SnapshotPath   string `json:"snapshotPath"`
	SnapshotUUID   string `json:"snapshotUUID"`
	SnapshotSize   int64  `json:"snapshotSize"`
	SnapshotURL    string `json:"snapshotUrl"`
	SnapshotWidth  int    `json:"snapshotWidth"`
	SnapshotHeight int    `json:"snapshotHeight"`
	SnapshotType   string `json:"snapshotType"`

	Video    *RawFile `json:"-"`
	Snapshot *RawFile `json:"-"`
}

type FilePayload struct {
	ClientMsgID string `json:"clientMsgID"`
	ContentType int    `json:"contentType"`
	CreateTime  int64  `json:"createTime"`
	FilePath    string `json:"filePath"`
	UUID        string `json:"uuid"`
	SourceURL   string `json:"sourceUrl"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	FileType    string `json:"fileType"`

	Source *RawFile `json:"-"`
}

// MessagePayload is the discriminated union handed back to callers. Exactly
// one of Image, Video and File is set, matching Kind.
type MessagePayload struct {
	Kind  MessageKind   `json:"kind"`
	Image *ImagePayload `json:"image,omitempty"`
	Video *VideoPayload `json:"video,omitempty"`
	File  *FilePayload  `json:"file,omitempty"`
}

func NewImageMessage(p *ImagePayload) *MessagePayload {
	return &MessagePayload{Kind: MessageKindImage, Image: p}
}

func NewVideoMessage(p *VideoPayload) *MessagePayload {
	return &MessagePayload{Kind: MessageKindVideo, Video: p}
}

func NewFileMessage(p *FilePayload) *MessagePayload {
	return &MessagePayload{Kind: MessageKindFile, File: p}
}

func (m *MessagePayload) Validate() error {
	set := 0
	for _, ok := range []bool{m.Image != nil, m.Video != nil, m.File != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("message payload must carry exactly one variant, got %d", set)
	}
	switch {
	case m.Kind == MessageKindImage && m.Image != nil,
		m.Kind == MessageKindVideo && m.Video != nil,
		m.Kind == MessageKindFile && m.File != nil:
		return nil
	}
	return fmt.Errorf("message payload kind %q does not match its variant", m.Kind)
}
