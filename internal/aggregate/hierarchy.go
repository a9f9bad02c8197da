package aggregate

import (
	"sort"

	"github.com/dailit/dailit-server/internal/models"
)

// AccountRef is the slice of a subscription user the hierarchy needs
type AccountRef struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	ParentAccountID *string `json:"parentAccountId,omitempty"`
}

// ParentAccountNode is a root account with its direct children
type ParentAccountNode struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	ChildCount int          `json:"childCount"`
	Children   []AccountRef `json:"children"`
}

// HierarchyOptions selects how references that do not point at a root are
// handled.
type HierarchyOptions struct {
	// ReparentOrphans flattens multi-level chains onto their ultimate root.
	// When false, a user whose parent is not a root is left out entirely.
	// References to ids that do not exist are dropped either way.
	ReparentOrphans bool
}

// AccountRefs projects subscription users onto the fields the hierarchy uses.
func AccountRefs(users []models.SubscriptionUser) []AccountRef {
	refs := make([]AccountRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, AccountRef{
			ID:              u.ID,
			Name:            u.Name,
			Email:           u.Email,
			ParentAccountID: u.ParentAccountID,
		})
	}
	return refs
}

func hasParent(u AccountRef) bool {
	return u.ParentAccountID != nil && *u.ParentAccountID != ""
}

// BuildHierarchy groups users under their parent accounts. Roots are users
// without a parent; the result is ordered by child count, largest first, with
// ties kept in input order.
func BuildHierarchy(users []AccountRef, opts HierarchyOptions) []ParentAccountNode {
	byID := make(map[string]AccountRef, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	nodes := make([]*ParentAccountNode, 0)
	roots := make(map[string]*ParentAccountNode)
	for _, u := range users {
		if hasParent(u) {
			continue
		}
		n := &ParentAccountNode{ID: u.ID, Name: u.Name, Email: u.Email, Children: []AccountRef{}}
		nodes = append(nodes, n)
		roots[u.ID] = n
	}

	for _, u := range users {
		if !hasParent(u) {
			continue
		}
		rootID := *u.ParentAccountID
		if opts.ReparentOrphans {
			var ok bool
			rootID, ok = ultimateRoot(u, byID)
			if !ok {
				continue
			}
		}
		root, ok := roots[rootID]
		if !ok {
			continue
		}
		root.Children = append(root.Children, u)
	}

	out := make([]ParentAccountNode, len(nodes))
	for i, n := range nodes {
		n.ChildCount = len(n.Children)
		out[i] = *n
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChildCount > out[j].ChildCount
	})
	return out
}

// ultimateRoot follows parent links to a user without a parent. It reports
// false for dangling references and cycles.
func ultimateRoot(u AccountRef, byID map[string]AccountRef) (string, bool) {
	seen := map[string]bool{u.ID: true}
	cur := u
	for hasParent(cur) {
		next, ok := byID[*cur.ParentAccountID]
		if !ok || seen[next.ID] {
			return "", false
		}
		seen[next.ID] = true
		cur = next
	}
	return cur.ID, true
}
