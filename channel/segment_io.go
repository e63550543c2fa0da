package channel

import (
	"fmt"
	"io"
	"os"

	"github.com/msel-source/mefwriter/password"
	"github.com/msel-source/mefwriter/section"
)

// openFreshSegment creates the directory and three files for segmentNumber,
// writes their initial (empty) universal headers, and resets the
// per-segment channel state. startSampleCarry is the segment's persisted
// global sample offset, propagated across rollovers and append-mode opens
// (§4.1 rollover, §4.3 append).
func (c *Channel) openFreshSegment(startSampleCarry int64) error {
	dir := segmentDir(c.root, c.session, c.baseName, c.segmentNumber)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mefwriter: create segment directory: %w", err)
	}

	metaPath, dataPath, indexPath := segmentFilePaths(c.root, c.session, c.baseName, c.segmentNumber)

	metaFile, err := os.OpenFile(metaPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("mefwriter: create metadata file: %w", err)
	}
	dataFile, err := os.OpenFile(dataPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		metaFile.Close()
		return fmt.Errorf("mefwriter: create data file: %w", err)
	}
	indexFile, err := os.OpenFile(indexPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		metaFile.Close()
		dataFile.Close()
		return fmt.Errorf("mefwriter: create index file: %w", err)
	}

	metaHeader := section.NewUniversalHeader(c.segmentNumber, c.cfg.UUIDs.New(), c.levelUUID)
	dataHeader := section.NewUniversalHeader(c.segmentNumber, c.cfg.UUIDs.New(), c.levelUUID)
	indexHeader := section.NewUniversalHeader(c.segmentNumber, c.cfg.UUIDs.New(), c.levelUUID)

	for _, h := range []*section.UniversalHeader{metaHeader, dataHeader, indexHeader} {
		h.ByteOrderBig = c.cfg.ByteOrderBig
		h.SessionName = c.session
		h.ChannelName = c.baseName
		h.AnonymizedName = c.anonymizedName
	}

	if _, err := metaFile.WriteAt(metaHeader.Bytes(c.cfg.Checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: write metadata header: %w", err)
	}
	if _, err := dataFile.WriteAt(dataHeader.Bytes(c.cfg.Checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: write data header: %w", err)
	}
	if _, err := indexFile.WriteAt(indexHeader.Bytes(c.cfg.Checksum), 0); err != nil {
		return fmt.Errorf("mefwriter: write index header: %w", err)
	}

	if _, err := dataFile.Seek(section.UniversalHeaderSize, io.SeekStart); err != nil {
		return err
	}
	if _, err := indexFile.Seek(section.UniversalHeaderSize, io.SeekStart); err != nil {
		return err
	}

	c.metaFile, c.dataFile, c.indexFile = metaFile, dataFile, indexFile
	c.metaHeader, c.dataHeader, c.indexHeader = metaHeader, dataHeader, indexHeader
	c.dataOffset = section.UniversalHeaderSize
	c.indexOffset = section.UniversalHeaderSize

	// Already validated by WithPasswords at option-apply time; rebuilding
	// here just recovers the derived encryption flags.
	pw, err := password.Build(c.cfg.Password1, c.cfg.Password2)
	if err != nil {
		return fmt.Errorf("mefwriter: rebuild password data: %w", err)
	}

	c.meta = section.SegmentMetadata{
		Identity: section.IdentitySection{
			SessionName:     c.session,
			ChannelName:     c.baseName,
			AnonymizedName:  c.anonymizedName,
			SegmentNumber:   c.segmentNumber,
			Level1Encrypted: pw.Level1Encrypted,
			Level2Encrypted: pw.Level2Encrypted,
		},
		Channel: section.NewChannelSection(),
		Subject: section.SubjectSection{
			SubjectID:           c.cfg.SubjectID,
			RecordingTimeOffset: c.shared.RecordingTimeOffset(),
			GMTOffset:           c.shared.GMTOffsetSeconds(),
			FreeText:            c.cfg.FreeText,
		},
	}
	c.meta.Channel.SamplingFrequency = c.cfg.SamplingFrequency
	c.meta.Channel.BlockInterval = c.cfg.BlockIntervalUS
	c.meta.Channel.SecsPerBlock = c.cfg.SecsPerBlock
	c.meta.Channel.SecsPerSegment = c.cfg.SecsPerSegment
	c.meta.Channel.BitShift = c.cfg.BitShift
	c.meta.Channel.UnitsConversionFactor = c.cfg.UnitsConversionFactor
	c.meta.Channel.LowFilterSetting = c.cfg.LowFilterHz
	c.meta.Channel.HighFilterSetting = c.cfg.HighFilterHz
	c.meta.Channel.NotchFilterSetting = c.cfg.NotchFilterHz
	c.meta.Channel.ACLineFrequency = c.cfg.ACLineFreqHz
	c.meta.Channel.StartSample = startSampleCarry

	if err := c.cfg.RedCodec.Allocate(c.cfg.maxSamplesPerBlock()); err != nil {
		return fmt.Errorf("mefwriter: allocate codec: %w", err)
	}

	c.blockStartSample = 0
	c.contigBlocks, c.contigSamples, c.contigBytes = 0, 0, 0
	c.nextBoundaryEstablished = false

	return nil
}
