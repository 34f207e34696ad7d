package models

// Option shapes accepted by the messaging SDK. The *FileOptions variants
// embed content for hosts without filesystem paths; the *PathOptions
// variants reference files the SDK reads itself.

type ImageFileOptions struct {
	SourcePicture   PictureInfo
	BigPicture      PictureInfo
	SnapshotPicture PictureInfo
	SourcePath      string
	File            *RawFile
}

type VideoPathOptions struct {
	VideoPath    string
	SnapshotPath string
	VideoType    string
	Duration     int64
}

type VideoFileOptions struct {
	VideoFile      *RawFile
	SnapshotFile   *RawFile
	VideoPath      string
	Duration       int64
	VideoType      string
	SnapshotPath   string
	VideoUUID      string
	VideoURL       string
	VideoSize      int64
	SnapshotUUID   string
	SnapshotSize   int64
	SnapshotURL    string
	SnapshotWidth  int
	SnapshotHeight int
	SnapshotType   string
}

type FilePathOptions struct {
	FilePath string
	FileName string
}

type FileFileOptions struct {
	File      *RawFile
	FilePath  string
	FileName  string
	UUID      string
	SourceURL string
	FileSize  int64
	FileType  string
}
