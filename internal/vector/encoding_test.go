package vector

import "testing"

func TestEncodeEmbedding_Layout(t *testing.T) {
	b := EncodeEmbedding([]float32{1, -2.5})
	if len(b) != 8 {
		t.Fatalf("len=%d", len(b))
	}
	// 1.0 is 0x3f800000 little-endian.
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x80 || b[3] != 0x3f {
		t.Errorf("unexpected bytes % x", b[:4])
	}
	v, err := DecodeEmbedding(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 2 || v[0] != 1 || v[1] != -2.5 {
		t.Errorf("decoded %v", v)
	}
}

func TestEncodeEmbedding_EmptyIsNil(t *testing.T) {
	if EncodeEmbedding(nil) != nil {
		t.Error("nil vector should encode to nil")
	}
	v, err := DecodeEmbedding(nil)
	if err != nil || v != nil {
		t.Errorf("decode nil: %v, %v", v, err)
	}
}

func TestDecodeEmbedding_BadLength(t *testing.T) {
	if _, err := DecodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for 3-byte blob")
	}
}
