package embedding

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWordPieceTokenizer_Fallback(t *testing.T) {
	tok, err := NewWordPieceTokenizer("")
	if err != nil {
		t.Fatal(err)
	}
	ids, attn, types := tok.Tokenize("Trader Joe's", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths: %d %d %d", len(ids), len(attn), len(types))
	}
	if ids[0] != clsID {
		t.Errorf("expected CLS %d, got %d", clsID, ids[0])
	}
	// cls, trader, joe, ', s, sep
	if ids[5] != sepID {
		t.Errorf("expected SEP at 5, got %v", ids)
	}
	if attn[5] != 1 || attn[6] != 0 {
		t.Errorf("unexpected attention mask %v", attn)
	}
}

func TestWordPieceTokenizer_Vocab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	vocab := "[PAD]\n[UNK]\n[CLS]\n[SEP]\nwal\n##mart\ntarget\n"
	if err := os.WriteFile(path, []byte(vocab), 0644); err != nil {
		t.Fatal(err)
	}
	tok, err := NewWordPieceTokenizer(path)
	if err != nil {
		t.Fatal(err)
	}
	ids, _, _ := tok.Tokenize("Walmart TARGET xyz", 8)
	want := []int64{2, 4, 5, 6, 1, 3, 0, 0}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("got %v, want %v", ids, want)
	}
}

func TestWordPieceTokenizer_Truncates(t *testing.T) {
	tok, _ := NewWordPieceTokenizer("")
	ids, _, _ := tok.Tokenize("a b c d e f g", 4)
	if ids[3] != sepID {
		t.Errorf("last slot should be SEP, got %v", ids)
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  Bed  Bath & Beyond  ")
	want := []string{"bed", "bath", "&", "beyond"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("got %v, want %v", words, want)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
}
