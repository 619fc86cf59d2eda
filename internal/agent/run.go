// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"sync"
)

// RecallThreshold is the relevance score above which a node is recalled.
const RecallThreshold = 0.5

// Root extra keys written when a run finishes.
const (
	extraTouched  = "touch_ids"
	extraSeen     = "crawler_recall_papers"
	extraRecalled = "recall_papers"
	extraAnswer   = "answer"
	extraExpand   = "expand"
	extraSimScore = "similarity_score"
)

// run is the shared state of one agent run. mu guards the touched set, the
// tree, the node lists, and the recall lists. Scoring happens outside mu.
type run struct {
	query string

	mu       sync.Mutex
	root     *Node
	touched  map[string]struct{}
	order    []string
	seen     []string
	recalled []string
	nodes    int

	// expanded holds nodes already moved to a work list; frontier holds
	// nodes discovered since the last layer started.
	expanded []*Node
	frontier []*Node
}

func newRun(userQuery string) *run {
	return &run{
		query:   userQuery,
		root:    newRoot(userQuery),
		touched: make(map[string]struct{}),
	}
}

// claim marks id as touched and reports whether this call was the first to
// see it. The empty ID is never marked and always claims.
func (r *run) claim(id string) bool {
	if id == "" {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.touched[id]; ok {
		return false
	}
	r.touched[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}

// queryBranches creates one branch per query on the root, in query order.
func (r *run) queryBranches(queries []string) []*Branch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Branch, len(queries))
	for i, q := range queries {
		out[i] = r.root.Branch(BranchQuery, q)
	}
	return out
}

// attach creates nodes for scored candidates and appends them to b. When
// parent is set, the nodes go under the parent's similar branch instead, the
// parent is marked as expanded, and the new nodes join the frontier.
func (r *run) attach(parent *Node, b *Branch, cands []Candidate, scores []float64, depth int, source string) []*Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parent != nil {
		b = parent.Branch(BranchSimilar, "")
	}

	added := make([]*Node, len(cands))
	for i, c := range cands {
		n := c.node(depth, source, scores[i])
		added[i] = n
		b.Children = append(b.Children, n)
		r.seen = append(r.seen, n.Title)
		if n.RelevanceScore > RecallThreshold {
			r.recalled = append(r.recalled, n.Title)
		}
	}
	r.nodes += len(added)

	if parent != nil {
		parent.Extra[extraExpand] = "success"
		r.frontier = append(r.frontier, added...)
	}
	return added
}

// added returns how many nodes the run has attached so far.
func (r *run) added() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nodes
}

// seedFrontier makes the root's search hits the first frontier, in branch
// order.
func (r *run) seedFrontier() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.root.Branches {
		r.frontier = append(r.frontier, b.Children...)
	}
}

// nextLayer moves the frontier, sorted by descending score, to the expanded
// list and returns it as the next work list. Beyond the first layer the work
// list is capped at limit.
func (r *run) nextLayer(depth, limit int) []*Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.frontier
	r.frontier = nil
	SortByScore(work)
	r.expanded = append(r.expanded, work...)
	if depth > 0 && len(work) > limit {
		work = work[:limit]
	}
	return work
}

// finish writes the run summary into the root's extra.
func (r *run) finish(answer []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root.Extra[extraTouched] = append([]string{}, r.order...)
	r.root.Extra[extraSeen] = append([]string{}, r.seen...)
	r.root.Extra[extraRecalled] = append([]string{}, r.recalled...)
	if len(answer) > 0 {
		r.root.Extra[extraAnswer] = answer
	}
}

// workList hands nodes to pool workers front to back.
type workList struct {
	mu    sync.Mutex
	items []*Node
}

func (w *workList) pop() (*Node, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.items) == 0 {
		return nil, false
	}
	n := w.items[0]
	w.items = w.items[1:]
	return n, true
}
