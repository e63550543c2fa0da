package channel

import (
	"fmt"
	"path/filepath"
)

// On-disk suffixes per spec §6's directory layout.
const (
	SessionDirSuffix  = "mefd"
	ChannelDirSuffix  = "timd"
	SegmentDirSuffix  = "segd"
	MetadataSuffix    = "tmet"
	DataSuffix        = "tdat"
	IndexSuffix       = "tidx"
)

// sessionDir returns <root>/<session>.mefd
func sessionDir(root, session string) string {
	return filepath.Join(root, fmt.Sprintf("%s.%s", session, SessionDirSuffix))
}

// channelDir returns <root>/<session>.mefd/<channel>.timd
func channelDir(root, session, channel string) string {
	return filepath.Join(sessionDir(root, session), fmt.Sprintf("%s.%s", channel, ChannelDirSuffix))
}

// segmentDirName returns <channel>-NNNNNN.segd
func segmentDirName(channel string, segmentNumber int32) string {
	return fmt.Sprintf("%s-%06d.%s", channel, segmentNumber, SegmentDirSuffix)
}

// segmentDir returns <root>/<session>.mefd/<channel>.timd/<channel>-NNNNNN.segd
func segmentDir(root, session, channel string, segmentNumber int32) string {
	return filepath.Join(channelDir(root, session, channel), segmentDirName(channel, segmentNumber))
}

// segmentFileBase returns <channel>-NNNNNN, the shared basename of the
// three segment files.
func segmentFileBase(channel string, segmentNumber int32) string {
	return fmt.Sprintf("%s-%06d", channel, segmentNumber)
}

// segmentFilePaths returns the (metadata, data, index) file paths for a segment.
func segmentFilePaths(root, session, channel string, segmentNumber int32) (meta, data, index string) {
	dir := segmentDir(root, session, channel, segmentNumber)
	base := segmentFileBase(channel, segmentNumber)

	return filepath.Join(dir, base+"."+MetadataSuffix),
		filepath.Join(dir, base+"."+DataSuffix),
		filepath.Join(dir, base+"."+IndexSuffix)
}
