package main

import (
	"fmt"

	t "github.com/darrenburns/terma"
)

type SnapNodeKind int

const (
	SnapNodeUnknown SnapNodeKind = iota
	SnapNodeHome
	SnapNodeGroup
	SnapNodeLeaf
)

// SnapNodeData is the payload carried by every navigable tree node: either a
// group (category) or a leaf (single image). Leaf keys are exactly the image
// path they reference, so a selection key resolves back to a renderable
// image without a side table. Group keys are fixed identifiers so the tree
// shape is deterministic across rebuilds.
type SnapNodeData struct {
	Key      string
	Label    string
	Kind     SnapNodeKind
	Category SnapCategory
	Count    int
	Image    *SnapImage
	Diff     *DiffImage
}

// NavTree is the derived navigation model for one comparison result. It is
// rebuilt from the cached result on demand and never persisted.
type NavTree struct {
	Roots []t.TreeNode[SnapNodeData]

	keyToTreePath map[string][]int
	nodeByKey     map[string]SnapNodeData
	leafKeys      []string
}

// BuildNavTree projects a comparison result into the navigable tree: a
// synthetic Home node, then one group node per category in fixed order
// (changed, created, deleted, new, old). Empty categories still yield a
// zero-child group so the viewer can show "0 changed" rather than a missing
// tab. Duplicate image paths within one result are a backend invariant
// violation; the builder keeps the first occurrence and later ones are
// unreachable.
func BuildNavTree(result *ComparisonResult) *NavTree {
	tree := &NavTree{
		keyToTreePath: map[string][]int{},
		nodeByKey:     map[string]SnapNodeData{},
	}

	home := SnapNodeData{Key: navKeyHome, Label: "Home", Kind: SnapNodeHome}
	tree.appendRoot(t.TreeNode[SnapNodeData]{Data: home})

	for _, category := range defaultCategoryOrder() {
		tree.appendRoot(buildGroupNode(tree, result, category))
	}
	return tree
}

func buildGroupNode(tree *NavTree, result *ComparisonResult, category SnapCategory) t.TreeNode[SnapNodeData] {
	groupIdx := len(tree.Roots)
	children := []t.TreeNode[SnapNodeData]{}

	appendLeaf := func(data SnapNodeData) {
		if _, exists := tree.keyToTreePath[data.Key]; exists {
			return
		}
		tree.keyToTreePath[data.Key] = []int{groupIdx, len(children)}
		tree.nodeByKey[data.Key] = data
		tree.leafKeys = append(tree.leafKeys, data.Key)
		children = append(children, t.TreeNode[SnapNodeData]{Data: data})
	}

	if category == CategoryChanged {
		for idx := range result.DiffImages {
			diff := &result.DiffImages[idx]
			appendLeaf(SnapNodeData{
				Key:      diff.ColorDiff.Path,
				Label:    diff.ColorDiff.Basename(),
				Kind:     SnapNodeLeaf,
				Category: category,
				Diff:     diff,
			})
		}
	} else {
		images := categoryImages(result, category)
		for idx := range images {
			image := &images[idx]
			appendLeaf(SnapNodeData{
				Key:      image.Path,
				Label:    image.Basename(),
				Kind:     SnapNodeLeaf,
				Category: category,
				Image:    image,
			})
		}
	}

	group := SnapNodeData{
		Key:      category.GroupKey(),
		Label:    category.DisplayName(),
		Kind:     SnapNodeGroup,
		Category: category,
		Count:    len(children),
	}
	tree.nodeByKey[group.Key] = group
	return t.TreeNode[SnapNodeData]{Data: group, Children: children}
}

func categoryImages(result *ComparisonResult, category SnapCategory) []SnapImage {
	switch category {
	case CategoryCreated:
		return result.CreatedImages
	case CategoryDeleted:
		return result.DeletedImages
	case CategoryNew:
		return result.NewImages
	case CategoryOld:
		return result.OldImages
	}
	return nil
}

func (tree *NavTree) appendRoot(node t.TreeNode[SnapNodeData]) {
	root := node.Data
	if _, exists := tree.keyToTreePath[root.Key]; !exists {
		tree.keyToTreePath[root.Key] = []int{len(tree.Roots)}
		if _, known := tree.nodeByKey[root.Key]; !known {
			tree.nodeByKey[root.Key] = root
		}
	}
	tree.Roots = append(tree.Roots, node)
}

// TreePath maps a node key to its cursor path in the rendered tree.
func (tree *NavTree) TreePath(key string) ([]int, bool) {
	path, ok := tree.keyToTreePath[key]
	return path, ok
}

// Node resolves a selection key to its payload.
func (tree *NavTree) Node(key string) (SnapNodeData, bool) {
	data, ok := tree.nodeByKey[key]
	return data, ok
}

// LeafKeys lists every image leaf in display order, used for next/prev
// cycling in the detail view.
func (tree *NavTree) LeafKeys() []string {
	return tree.leafKeys
}

// GroupKeyPath returns the click key path for a leaf: its group key followed
// by the leaf key.
func (tree *NavTree) GroupKeyPath(leafKey string) ([]string, bool) {
	data, ok := tree.nodeByKey[leafKey]
	if !ok || data.Kind != SnapNodeLeaf {
		return nil, false
	}
	return []string{data.Category.GroupKey(), leafKey}, true
}

func (tree *NavTree) groupCountLabel(category SnapCategory) string {
	data, ok := tree.nodeByKey[category.GroupKey()]
	if !ok {
		return category.DisplayName()
	}
	return fmt.Sprintf("%s (%d)", data.Label, data.Count)
}

func clonePath(path []int) []int {
	if path == nil {
		return nil
	}
	out := make([]int, len(path))
	copy(out, path)
	return out
}
