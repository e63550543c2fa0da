// Package errs defines the sentinel errors returned across the mefwriter
// packages. Callers should match these with errors.Is; wrapping callers
// add context with fmt.Errorf("...: %w", err).
package errs

import "errors"

var (
	// ErrAllocationFailed indicates a fatal, unrecoverable allocation failure
	// during channel initialization.
	ErrAllocationFailed = errors.New("mefwriter: allocation failed")

	// ErrPasswordPolicyViolated indicates a level-2 password was supplied
	// without a level-1 password, or the two passwords are identical.
	ErrPasswordPolicyViolated = errors.New("mefwriter: password policy violated")

	// ErrInvalidSegmentNumber indicates append was called with a segment
	// number <= 0. Benign: the caller should treat this as a no-op.
	ErrInvalidSegmentNumber = errors.New("mefwriter: invalid segment number")

	// ErrUnknownRecordKind indicates an annotation record kind outside
	// {Note, Seiz, Curs, Epoc}. The writer silently ignores such records
	// and ParseRecordKind reports them with a false second result, so no
	// function in this module returns this error.
	ErrUnknownRecordKind = errors.New("mefwriter: unknown record kind")

	// ErrNotInitialized indicates an operation was attempted on a Channel
	// that was not created by NewChannel or OpenForAppend.
	ErrNotInitialized = errors.New("mefwriter: not initialized")

	// ErrChannelClosed indicates an operation was attempted after Close.
	ErrChannelClosed = errors.New("mefwriter: channel already closed")

	// ErrInvalidHeaderSize indicates a universal header byte slice was not
	// exactly UniversalHeaderSize bytes.
	ErrInvalidHeaderSize = errors.New("mefwriter: invalid universal header size")

	// ErrInvalidMagicNumber indicates a universal header failed a magic
	// number check. The universal header has no magic-number field, and
	// UniversalHeader.Parse never returns this error.
	ErrInvalidMagicNumber = errors.New("mefwriter: invalid magic number")

	// ErrHeaderCRCMismatch indicates a parsed universal header's stored
	// header CRC does not match the recomputed CRC.
	ErrHeaderCRCMismatch = errors.New("mefwriter: header CRC mismatch")

	// ErrInvalidIndexEntrySize indicates an index entry byte slice was not
	// exactly IndexEntrySize bytes.
	ErrInvalidIndexEntrySize = errors.New("mefwriter: invalid index entry size")

	// ErrEmptySessionName indicates a blank session, channel, or record
	// data file name was supplied where a non-empty name is required.
	ErrEmptySessionName = errors.New("mefwriter: empty session or channel name")
)
