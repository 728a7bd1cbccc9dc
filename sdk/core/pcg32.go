package core

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

const (
	pcg32Multiplier = 6364136223846793005
	pcg32FloatUnit  = 1.0 / (1 << 32)
	pcg32StateSize  = 16
)

// PCG32 為 64-bit 狀態、32-bit 輸出的 PCG (XSH RR) 產生器。
type PCG32 struct {
	state uint64
	inc   uint64
}

func newPCG32WithSeed(seed int64) *PCG32 {
	r := &PCG32{inc: 1<<1 | 1}
	// stream 初始化 -> 加 seed -> 再 step 一次
	r.next()
	r.state += uint64(seed)
	r.next()
	return r
}

func (r *PCG32) Uint64() uint64 {
	return (uint64(r.next()) << 32) | uint64(r.next())
}

// UintN 產出[0,n) 的uint整數，若 max == 0 回傳 0
func (r *PCG32) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.below64(uint64(max)))
}

// IntN 回傳 [0,n) 的亂數；若 n <= 0 回傳 -1。
func (r *PCG32) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	if max <= math.MaxUint32 {
		return int(r.below32(uint32(max)))
	}
	return int(r.below64(uint64(max)))
}

// Float64 回傳 [0,1) 的浮點亂數（32-bit 精度）。
func (r *PCG32) Float64() float64 {
	return float64(r.next()) * pcg32FloatUnit
}

// Snapshot 以 big-endian 輸出 state 與 inc。
func (r *PCG32) Snapshot() ([]byte, error) {
	b := make([]byte, 0, pcg32StateSize)
	b = binary.BigEndian.AppendUint64(b, r.state)
	b = binary.BigEndian.AppendUint64(b, r.inc)
	return b, nil
}

func (r *PCG32) Restore(data []byte) error {
	if len(data) != pcg32StateSize {
		return fmt.Errorf("pcg32: snapshot must be %d bytes, got %d", pcg32StateSize, len(data))
	}
	inc := binary.BigEndian.Uint64(data[8:])
	if inc&1 == 0 {
		return fmt.Errorf("pcg32: increment must be odd")
	}
	r.state = binary.BigEndian.Uint64(data[:8])
	r.inc = inc
	return nil
}

func (r *PCG32) next() uint32 {
	old := r.state
	r.state = old*pcg32Multiplier + r.inc
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return bits.RotateLeft32(xorshifted, -int(rot))
}

func (r *PCG32) below32(bound uint32) uint32 {
	threshold := -bound % bound
	for {
		if v := r.next(); v >= threshold {
			return v % bound
		}
	}
}

func (r *PCG32) below64(bound uint64) uint64 {
	threshold := -bound % bound
	for {
		if v := r.Uint64(); v >= threshold {
			return v % bound
		}
	}
}
