package consolidate

// MergeRule identifies which cascade step produced a merge edge. Components
// whose edges span more than one non-exact rule carry lower merge
// confidence (transitive merges are not guaranteed safe).
type MergeRule string

const (
	RuleExact     MergeRule = "exact"
	RuleSubstring MergeRule = "substring"
	RuleAlias     MergeRule = "alias"
	RuleEmbedding MergeRule = "embedding"
)

// unionFind is a disjoint-set over normalized keys. Cyclic merge chains
// collapse naturally; no graph traversal is needed.
type unionFind struct {
	parent map[string]string
	size   map[string]int
	rules  map[string]map[MergeRule]struct{}
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: map[string]string{},
		size:   map[string]int{},
		rules:  map[string]map[MergeRule]struct{}{},
	}
}

func (u *unionFind) add(key string) {
	if key == "" {
		return
	}
	if _, ok := u.parent[key]; !ok {
		u.parent[key] = key
		u.size[key] = 1
	}
}

func (u *unionFind) find(key string) string {
	root := key
	for u.parent[root] != root {
		root = u.parent[root]
	}
	// Path compression.
	for u.parent[key] != root {
		key, u.parent[key] = u.parent[key], root
	}
	return root
}

func (u *unionFind) union(a, b string, rule MergeRule) {
	if a == "" || b == "" {
		return
	}
	u.add(a)
	u.add(b)
	rootA, rootB := u.find(a), u.find(b)
	if rootA == rootB {
		return
	}
	if u.size[rootA] < u.size[rootB] {
		rootA, rootB = rootB, rootA
	}
	u.parent[rootB] = rootA
	u.size[rootA] += u.size[rootB]
	merged := u.rules[rootA]
	if merged == nil {
		merged = map[MergeRule]struct{}{}
		u.rules[rootA] = merged
	}
	for r := range u.rules[rootB] {
		merged[r] = struct{}{}
	}
	delete(u.rules, rootB)
	if rule != RuleExact {
		merged[rule] = struct{}{}
	}
}

func (u *unionFind) sameSet(a, b string) bool {
	if _, ok := u.parent[a]; !ok {
		return false
	}
	if _, ok := u.parent[b]; !ok {
		return false
	}
	return u.find(a) == u.find(b)
}

// components groups every key by its root.
func (u *unionFind) components() map[string][]string {
	out := map[string][]string{}
	for key := range u.parent {
		root := u.find(key)
		out[root] = append(out[root], key)
	}
	return out
}

// ruleSpan returns the distinct non-exact rules that built the component.
func (u *unionFind) ruleSpan(key string) int {
	return len(u.rules[u.find(key)])
}
