package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	a, _ := e.Embed(context.Background(), "Walmart")
	b, _ := e.Embed(context.Background(), "Walmart")
	c, _ := e.Embed(context.Background(), "Target")
	if len(a) != 16 {
		t.Fatalf("len=%d", len(a))
	}
	same, differs := true, false
	for i := range a {
		if a[i] != b[i] {
			same = false
		}
		if a[i] != c[i] {
			differs = true
		}
	}
	if !same {
		t.Error("same text should give the same vector")
	}
	if !differs {
		t.Error("different texts should give different vectors")
	}
	var sum float64
	for _, x := range a {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-5 {
		t.Errorf("mock vectors should be unit length, got norm %f", math.Sqrt(sum))
	}
}
