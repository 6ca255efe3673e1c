package index

import (
	"sort"
	"testing"
)

func sorted(got []string) []string {
	out := append([]string(nil), got...)
	sort.Strings(out)
	return out
}

func TestTrieInsertAndPrefix(t *testing.T) {
	tr := newTrie()
	names := []string{
		"Apple Inc. (AAPL)",
		"Applied Materials, Inc. (AMAT)",
		"Amazon.com, Inc. (AMZN)",
		"Coca-Cola Company (The) (KO)",
	}
	for _, n := range names {
		tr.insert(n)
	}

	if tr.len() != 4 {
		t.Fatalf("len() = %d, want 4", tr.len())
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"App", []string{"Apple Inc. (AAPL)", "Applied Materials, Inc. (AMAT)"}},
		{"A", []string{"Amazon.com, Inc. (AMZN)", "Apple Inc. (AAPL)", "Applied Materials, Inc. (AMAT)"}},
		{"Coca-Cola Company (The) (KO)", []string{"Coca-Cola Company (The) (KO)"}},
		{"Z", nil},
		{"", []string{"Amazon.com, Inc. (AMZN)", "Apple Inc. (AAPL)", "Applied Materials, Inc. (AMAT)", "Coca-Cola Company (The) (KO)"}},
	}

	for _, tt := range tests {
		got := sorted(tr.withPrefix(tt.prefix, 0))
		if len(got) != len(tt.want) {
			t.Errorf("withPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("withPrefix(%q)[%d] = %q, want %q", tt.prefix, i, got[i], tt.want[i])
			}
		}
	}
}

func TestTrieInsertDuplicate(t *testing.T) {
	tr := newTrie()
	tr.insert("3M Company (MMM)")
	tr.insert("3M Company (MMM)")
	if tr.len() != 1 {
		t.Errorf("len() = %d after duplicate insert, want 1", tr.len())
	}
}

func TestTrieDelete(t *testing.T) {
	tr := newTrie()
	tr.insert("Apple Inc. (AAPL)")
	tr.insert("Applied Materials, Inc. (AMAT)")

	tr.delete("Apple Inc. (AAPL)")

	if tr.len() != 1 {
		t.Fatalf("len() = %d after delete, want 1", tr.len())
	}
	if got := tr.withPrefix("Apple", 0); len(got) != 0 {
		t.Errorf("withPrefix(Apple) = %v after delete, want empty", got)
	}
	// Shared prefix branch survives.
	if got := tr.withPrefix("Appl", 0); len(got) != 1 || got[0] != "Applied Materials, Inc. (AMAT)" {
		t.Errorf("withPrefix(Appl) = %v, want the remaining name", got)
	}
}

func TestTrieDeleteAbsent(t *testing.T) {
	tr := newTrie()
	tr.insert("Apple Inc. (AAPL)")

	tr.delete("Applesauce")
	tr.delete("App")
	tr.delete("nonexistent")

	if tr.len() != 1 {
		t.Errorf("len() = %d after deleting absent names, want 1", tr.len())
	}
	if got := tr.withPrefix("Apple", 0); len(got) != 1 {
		t.Errorf("withPrefix(Apple) = %v, stored name should survive", got)
	}
}

func TestTrieDeletePrunes(t *testing.T) {
	tr := newTrie()
	tr.insert("KO")
	tr.delete("KO")

	if len(tr.root.children) != 0 {
		t.Errorf("root has %d children after delete, want 0", len(tr.root.children))
	}
}

func TestTriePrefixLimit(t *testing.T) {
	tr := newTrie()
	for _, n := range []string{"Aa", "Ab", "Ac", "Ad", "Ae"} {
		tr.insert(n)
	}

	got := tr.withPrefix("A", 3)
	if len(got) != 3 {
		t.Errorf("withPrefix with limit 3 returned %d names", len(got))
	}
}

func TestTrieUnicode(t *testing.T) {
	tr := newTrie()
	tr.insert("Nestlé S.A. (NSRGY)")

	if got := tr.withPrefix("Nestlé", 0); len(got) != 1 {
		t.Errorf("withPrefix(Nestlé) = %v, want one match", got)
	}
}
