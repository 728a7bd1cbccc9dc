package corefmt

import (
	"encoding/base64"
	"encoding/hex"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/orbrush/errs"
)

// 解壓上限，避免不可信輸入造成過量配置。
const maxDecodedSize = 1 << 20

var (
	encOnce sync.Once
	enc     *zstd.Encoder
	decOnce sync.Once
	dec     *zstd.Decoder
)

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.Invalidf("%v", err), "decode base64 failed")
	}
	return b, nil
}

// EncodeBase64URL RNG 快照與狀態 blob 的對外格式（URL-safe, 無 padding）。
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.Invalidf("%v", err), "decode base64url failed")
	}
	return b, nil
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.Invalidf("%v", err), "decode hex failed")
	}
	return b, nil
}

// Compress 以共用的 zstd encoder 壓縮整段資料；可併發呼叫。
func Compress(src []byte) []byte {
	encOnce.Do(func() {
		enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	})
	return enc.EncodeAll(src, make([]byte, 0, len(src)/2+16))
}

// Decompress Compress 的反向操作，輸出超過 1 MiB 視為錯誤。
func Decompress(src []byte) ([]byte, error) {
	decOnce.Do(func() {
		dec, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize), zstd.WithDecoderConcurrency(0))
	})
	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Invalidf("%v", err), "zstd decode failed")
	}
	return out, nil
}

// EncodeBlob 壓縮後轉 Base64URL，適合放進 JSON 欄位。
func EncodeBlob(raw []byte) string {
	return EncodeBase64URL(Compress(raw))
}

func DecodeBlob(s string) ([]byte, error) {
	b, err := DecodeBase64URL(s)
	if err != nil {
		return nil, err
	}
	return Decompress(b)
}
