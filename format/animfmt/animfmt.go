// Package animfmt stores 1-bit 128x64 animations as an initial frame plus
// XOR deltas, which compress well for mostly-static logo loops.
package animfmt

import (
	"encoding/binary"

	"badge-go/errcode"
)

// FrameSize is one 128x64 bitplane, row-major, MSB-first within each byte.
const FrameSize = 128 * 64 / 8

// Encode turns raw frames into the delta representation:
// u32 frame count, first frame verbatim, then frame[i] XOR frame[i-1].
func Encode(frames [][]byte) ([]byte, error) {
	for _, f := range frames {
		if len(f) != FrameSize {
			return nil, errcode.InvalidParams
		}
	}
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(frames)))
	for i, f := range frames {
		if i == 0 {
			out = append(out, f...)
			continue
		}
		prev := frames[i-1]
		for j := 0; j < FrameSize; j++ {
			out = append(out, f[j]^prev[j])
		}
	}
	return out, nil
}

// Decode reconstructs the raw frames.
func Decode(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, errcode.InvalidPayload
	}
	count := int(binary.LittleEndian.Uint32(data))
	data = data[4:]
	if len(data) != count*FrameSize {
		return nil, errcode.InvalidPayload
	}

	frames := make([][]byte, count)
	var prev []byte
	for i := 0; i < count; i++ {
		f := make([]byte, FrameSize)
		copy(f, data[i*FrameSize:(i+1)*FrameSize])
		if prev != nil {
			for j := range f {
				f[j] ^= prev[j]
			}
		}
		frames[i] = f
		prev = f
	}
	return frames, nil
}

// Player steps through an encoded animation without keeping every frame in
// memory; Frame holds the current reconstructed bitplane.
type Player struct {
	data  []byte
	count int
	next  int
	Frame [FrameSize]byte
}

func NewPlayer(data []byte) (*Player, error) {
	if len(data) < 4 {
		return nil, errcode.InvalidPayload
	}
	count := int(binary.LittleEndian.Uint32(data))
	body := data[4:]
	if len(body) != count*FrameSize {
		return nil, errcode.InvalidPayload
	}
	return &Player{data: body, count: count}, nil
}

func (p *Player) FrameCount() int { return p.count }

// Advance applies the next delta, wrapping to the first frame at the end.
func (p *Player) Advance() {
	if p.count == 0 {
		return
	}
	if p.next == 0 {
		// Restart: the first frame is absolute.
		copy(p.Frame[:], p.data[:FrameSize])
	} else {
		delta := p.data[p.next*FrameSize : (p.next+1)*FrameSize]
		for i := range p.Frame {
			p.Frame[i] ^= delta[i]
		}
	}
	p.next = (p.next + 1) % p.count
}

// Bit reports pixel (x, y) of the current frame.
func (p *Player) Bit(x, y int) bool {
	idx := y*16 + x/8
	return p.Frame[idx]&(0x80>>(x%8)) != 0
}
