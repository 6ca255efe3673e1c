// Package index provides the in-memory prefix index for company-name
// autocomplete: a character-keyed trie owned by a single process-wide service
// that mirrors the company store's display names.
package index

// trieNode is one node of the character-keyed trie. children is keyed by rune
// so names are not restricted to ASCII; terminal marks the end of a stored
// name.
type trieNode struct {
	children map[rune]*trieNode
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// trie stores a set of strings with O(len) insert, delete, and prefix query.
// It is not safe for concurrent use; Service adds the locking.
type trie struct {
	root *trieNode
	size int
}

func newTrie() *trie {
	return &trie{root: newTrieNode()}
}

// insert adds name to the set. Inserting a present name is a no-op.
func (t *trie) insert(name string) {
	node := t.root
	for _, r := range name {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	if !node.terminal {
		node.terminal = true
		t.size++
	}
}

// delete removes name from the set, pruning branches that no longer lead to a
// stored name. Deleting an absent name is a no-op.
func (t *trie) delete(name string) {
	type step struct {
		node *trieNode
		r    rune
	}

	path := make([]step, 0, len(name))
	node := t.root
	for _, r := range name {
		child, ok := node.children[r]
		if !ok {
			return
		}
		path = append(path, step{node: node, r: r})
		node = child
	}
	if !node.terminal {
		return
	}
	node.terminal = false
	t.size--

	// Prune empty leaves back toward the root.
	for i := len(path) - 1; i >= 0; i-- {
		child := path[i].node.children[path[i].r]
		if child.terminal || len(child.children) > 0 {
			break
		}
		delete(path[i].node.children, path[i].r)
	}
}

// withPrefix returns up to limit stored names that start with prefix. A
// limit <= 0 means no cap. The empty prefix matches every stored name.
func (t *trie) withPrefix(prefix string, limit int) []string {
	node := t.root
	for _, r := range prefix {
		child, ok := node.children[r]
		if !ok {
			return nil
		}
		node = child
	}

	var names []string
	t.collect(node, []rune(prefix), limit, &names)
	return names
}

// collect walks the subtree under node appending complete names to out until
// the limit is reached.
func (t *trie) collect(node *trieNode, acc []rune, limit int, out *[]string) {
	if limit > 0 && len(*out) >= limit {
		return
	}
	if node.terminal {
		*out = append(*out, string(acc))
	}
	for r, child := range node.children {
		t.collect(child, append(acc, r), limit, out)
		if limit > 0 && len(*out) >= limit {
			return
		}
	}
}

// len returns the number of stored names.
func (t *trie) len() int {
	return t.size
}
