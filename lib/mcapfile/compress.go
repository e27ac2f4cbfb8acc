// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcapfile

import (
	"fmt"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the chunk compression algorithm.
type Compression uint8

const (
	CompressionNone Compression = iota

	// CompressionLZ4 favours write throughput. Suited to image-heavy
	// recordings where the JPEG payloads do not compress further.
	CompressionLZ4

	// CompressionZstd gives the best ratio on JSON-heavy recordings.
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses "none", "lz4" or "zstd". The empty string
// means zstd.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// Level trades compression speed for ratio.
type Level uint8

const (
	LevelDefault Level = iota
	LevelFastest
	LevelBetter
	LevelBest
)

func (l Level) String() string {
	switch l {
	case LevelDefault:
		return "default"
	case LevelFastest:
		return "fastest"
	case LevelBetter:
		return "better"
	case LevelBest:
		return "best"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// ParseLevel parses "default", "fastest", "better" or "best". The
// empty string means default.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "default", "":
		return LevelDefault, nil
	case "fastest":
		return LevelFastest, nil
	case "better":
		return LevelBetter, nil
	case "best":
		return LevelBest, nil
	default:
		return 0, fmt.Errorf("unknown compression level %q", name)
	}
}

func (l Level) zstd() zstd.EncoderLevel {
	switch l {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBetter:
		return zstd.SpeedBetterCompression
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func (l Level) lz4() lz4.CompressionLevel {
	switch l {
	case LevelBetter:
		return lz4.Level5
	case LevelBest:
		return lz4.Level9
	default:
		return lz4.Fast
	}
}

// configure fills the compression fields of options. Each writer gets
// its own encoder; the MCAP writer resets it for every chunk.
func (c Compression) configure(level Level, options *mcap.WriterOptions) error {
	switch c {
	case CompressionNone:
		options.Compression = mcap.CompressionNone
	case CompressionLZ4:
		writer := lz4.NewWriter(nil)
		if err := writer.Apply(lz4.CompressionLevelOption(level.lz4())); err != nil {
			return fmt.Errorf("configuring lz4: %w", err)
		}
		options.Compression = mcap.CompressionLZ4
		options.Compressor = mcap.NewCustomCompressor(mcap.CompressionLZ4, writer)
	case CompressionZstd:
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level.zstd()))
		if err != nil {
			return fmt.Errorf("configuring zstd: %w", err)
		}
		options.Compression = mcap.CompressionZSTD
		options.Compressor = mcap.NewCustomCompressor(mcap.CompressionZSTD, encoder)
	default:
		return fmt.Errorf("unsupported compression %s", c)
	}
	return nil
}
