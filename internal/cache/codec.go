package cache

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Codec 负责磁盘缓存值的序列化与反序列化。
type Codec[V any] interface {
	Encode(w io.Writer, value V) error
	Decode(r io.Reader) (V, error)
}

// BytesCodec 原样写入字节切片。
type BytesCodec struct{}

func (BytesCodec) Encode(w io.Writer, value []byte) error {
	_, err := w.Write(value)
	return err
}

func (BytesCodec) Decode(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

// StringCodec 以原始字节写入字符串。
type StringCodec struct{}

func (StringCodec) Encode(w io.Writer, value string) error {
	_, err := io.WriteString(w, value)
	return err
}

func (StringCodec) Decode(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSONCodec 通过 encoding/json 编解码任意可序列化的值。
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(w io.Writer, value V) error {
	return json.NewEncoder(w).Encode(value)
}

func (JSONCodec[V]) Decode(r io.Reader) (V, error) {
	var value V
	if err := json.NewDecoder(r).Decode(&value); err != nil {
		return value, fmt.Errorf("decode json: %w", err)
	}
	return value, nil
}

// ZstdCodec 在内层 Codec 外包一层 zstd 压缩。
type ZstdCodec[V any] struct {
	inner Codec[V]
	level zstd.EncoderLevel
}

// NewZstdCodec 使用默认压缩级别包装 inner。
func NewZstdCodec[V any](inner Codec[V]) ZstdCodec[V] {
	return ZstdCodec[V]{inner: inner, level: zstd.SpeedDefault}
}

func (c ZstdCodec[V]) Encode(w io.Writer, value V) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := c.inner.Encode(enc, value); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func (c ZstdCodec[V]) Decode(r io.Reader) (V, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		var zero V
		return zero, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()
	return c.inner.Decode(dec)
}
