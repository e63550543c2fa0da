// Package uuidgen provides the UUID generation collaborator used to stamp
// file_UUID and level_UUID fields in universal headers.
package uuidgen

import "github.com/google/uuid"

// Generator produces 16 random bytes suitable for a file or level UUID.
type Generator interface {
	New() [16]byte
}

// randomGenerator is the default Generator, backed by google/uuid's
// version-4 random UUID generation.
type randomGenerator struct{}

// Default returns the production Generator.
func Default() Generator { return randomGenerator{} }

func (randomGenerator) New() [16]byte {
	return [16]byte(uuid.New())
}

// Fixed returns a Generator that always yields seed, for deterministic
// tests that need reproducible file/level UUIDs.
func Fixed(seed [16]byte) Generator {
	return fixedGenerator{seed: seed}
}

type fixedGenerator struct {
	seed [16]byte
}

func (f fixedGenerator) New() [16]byte { return f.seed }

// Sequence returns a Generator that yields successive UUIDs derived from
// seed by incrementing its last byte, useful for tests that need distinct
// but deterministic UUIDs (e.g. file_UUID vs level_UUID).
func Sequence(seed [16]byte) Generator {
	s := seed

	return &sequenceGenerator{next: s}
}

type sequenceGenerator struct {
	next [16]byte
}

func (s *sequenceGenerator) New() [16]byte {
	out := s.next
	for i := len(s.next) - 1; i >= 0; i-- {
		s.next[i]++
		if s.next[i] != 0 {
			break
		}
	}

	return out
}
