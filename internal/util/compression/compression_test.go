package compression

import (
	"bytes"
	"errors"
	"testing"
)

func TestCompressors(t *testing.T) {
	payload := bytes.Repeat([]byte("The school newsletter goes out on Fridays. "), 50)

	for _, name := range []string{"zstd", "gzip", "none"} {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			if err != nil {
				t.Fatalf("Failed to create compressor: %v", err)
			}

			compressed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if name != "none" && len(compressed) >= len(payload) {
				t.Errorf("Expected repetitive payload to shrink, got %d >= %d", len(compressed), len(payload))
			}

			got, err := c.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Error("Round trip changed the payload")
			}
		})
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("lz4"); err == nil {
		t.Error("Expected error for unknown compressor")
	}
}

func TestDecompressGarbage(t *testing.T) {
	for _, c := range []Compressor{ZstdCompressor{}, GzipCompressor{}} {
		if _, err := c.Decompress([]byte("not compressed")); err == nil {
			t.Errorf("%T: expected error on garbage input", c)
		}
	}
}

func TestCompressorsConcurrentUse(t *testing.T) {
	c := ZstdCompressor{}
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			payload := bytes.Repeat([]byte{byte('a' + i)}, 1000+i)
			compressed, err := c.Compress(payload)
			if err != nil {
				done <- err
				return
			}
			got, err := c.Decompress(compressed)
			if err == nil && !bytes.Equal(got, payload) {
				err = errors.New("payload changed")
			}
			done <- err
		}(i)
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}
