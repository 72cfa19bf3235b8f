// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const headerSize = 44

// WriteWAV16 writes samples as a mono 16-bit PCM WAV file at sampleRate.
func WriteWAV16(w io.Writer, sampleRate int, samples []int16) error {
	const (
		channels   = 1
		bytesPer   = 2
		blockAlign = channels * bytesPer
	)
	dataSize := uint32(len(samples) * bytesPer)

	var h [headerSize]byte
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], headerSize-8+dataSize)
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], formatPCM)
	binary.LittleEndian.PutUint16(h[22:], channels)
	binary.LittleEndian.PutUint32(h[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(h[32:], blockAlign)
	binary.LittleEndian.PutUint16(h[34:], bytesPer*8)
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], dataSize)

	bw := bufio.NewWriterSize(w, 8192)
	if _, err := bw.Write(h[:]); err != nil {
		return fmt.Errorf("writing wav header: %w", err)
	}

	var b [bytesPer]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		if _, err := bw.Write(b[:]); err != nil {
			return fmt.Errorf("writing wav samples: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	return nil
}
