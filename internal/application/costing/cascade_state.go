package costing

import (
	"github.com/bakehouse/backend/internal/domain/catalog"
)

// cascadeState carries the transient bookkeeping of a single cascade root
// invocation. It is created when a cost-change trigger fires and threaded
// by reference through the whole call chain, never stored globally: a
// concurrently scheduled invocation gets its own state, and the persisted
// cost-equality and AppliedAt checks remain the authoritative guards.
//
// visited and processing are deliberately separate sets: visited marks
// recipes whose update finished within this run (diamond-dependency
// defense), processing marks recipes currently being computed higher up
// the same call stack (true cycle defense).
type cascadeState struct {
	root       string
	origins    map[string]catalog.CostChangeOrigin
	depth      map[string]int
	visited    map[string]struct{}
	processing map[string]struct{}
}

// newCascadeState creates the state for one cascade root invocation
func newCascadeState(root string) *cascadeState {
	return &cascadeState{
		root:       root,
		origins:    make(map[string]catalog.CostChangeOrigin),
		depth:      make(map[string]int),
		visited:    make(map[string]struct{}),
		processing: make(map[string]struct{}),
	}
}

// markOrigin tags the pending cost write of a recipe with what caused it
func (s *cascadeState) markOrigin(recipeID string, origin catalog.CostChangeOrigin) {
	s.origins[recipeID] = origin
}

// takeOrigin reads and clears the origin tag for a recipe
func (s *cascadeState) takeOrigin(recipeID string) catalog.CostChangeOrigin {
	origin, ok := s.origins[recipeID]
	if ok {
		delete(s.origins, recipeID)
	}
	return origin
}

// markVisited records that a recipe's update finished within this run
func (s *cascadeState) markVisited(recipeID string) {
	s.visited[recipeID] = struct{}{}
}

// isVisited returns true if the recipe was already updated within this run
func (s *cascadeState) isVisited(recipeID string) bool {
	_, ok := s.visited[recipeID]
	return ok
}

// enterProcessing marks a recipe as being computed on the current call
// stack; it returns false when the recipe is already in progress, which
// means the traversal has looped back on itself
func (s *cascadeState) enterProcessing(recipeID string) bool {
	if _, ok := s.processing[recipeID]; ok {
		return false
	}
	s.processing[recipeID] = struct{}{}
	return true
}

// leaveProcessing removes the in-progress mark
func (s *cascadeState) leaveProcessing(recipeID string) {
	delete(s.processing, recipeID)
}

// bumpDepth increments the recipe's recursion counter and reports whether
// the configured maximum has been exceeded; the counter is cleared on
// exceed so a later legitimate invocation starts clean
func (s *cascadeState) bumpDepth(recipeID string, maxDepth int) bool {
	s.depth[recipeID]++
	if s.depth[recipeID] > maxDepth {
		delete(s.depth, recipeID)
		return false
	}
	return true
}
