package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildNavTree_FixedCategoryOrderWithHomeFirst(t *testing.T) {
	tree := BuildNavTree(&ComparisonResult{})

	require.Len(t, tree.Roots, 6)
	require.Equal(t, navKeyHome, tree.Roots[0].Data.Key)
	require.Equal(t, SnapNodeHome, tree.Roots[0].Data.Kind)
	require.Equal(t, navKeyDiffChanged, tree.Roots[1].Data.Key)
	require.Equal(t, navKeyDiffCreated, tree.Roots[2].Data.Key)
	require.Equal(t, navKeyDiffDeleted, tree.Roots[3].Data.Key)
	require.Equal(t, navKeyNewImages, tree.Roots[4].Data.Key)
	require.Equal(t, navKeyOldImages, tree.Roots[5].Data.Key)
}

func TestBuildNavTree_EmptyCategoriesYieldZeroChildGroups(t *testing.T) {
	tree := BuildNavTree(&ComparisonResult{})

	for _, root := range tree.Roots[1:] {
		require.Equal(t, SnapNodeGroup, root.Data.Kind)
		require.Zero(t, root.Data.Count)
		require.Empty(t, root.Children)
	}
	require.Empty(t, tree.LeafKeys())
}

func TestBuildNavTree_LeafKeysAreImagePaths(t *testing.T) {
	result := &ComparisonResult{
		CreatedImages: []SnapImage{
			snapImageForPath("created/button.png"),
			snapImageForPath("created/modal.png"),
		},
		DeletedImages: []SnapImage{
			snapImageForPath("deleted/footer.png"),
		},
	}
	tree := BuildNavTree(result)

	created, ok := tree.Node(navKeyDiffCreated)
	require.True(t, ok)
	require.Equal(t, 2, created.Count)

	leaf, ok := tree.Node("created/button.png")
	require.True(t, ok)
	require.Equal(t, SnapNodeLeaf, leaf.Kind)
	require.Equal(t, CategoryCreated, leaf.Category)
	require.Equal(t, "button.png", leaf.Label)
	require.NotNil(t, leaf.Image)
	require.Equal(t, "created/button.png", leaf.Image.Path)

	path, ok := tree.TreePath("deleted/footer.png")
	require.True(t, ok)
	require.Equal(t, []int{3, 0}, path)
}

func TestBuildNavTree_ChangedLeavesCarryTheFullDiff(t *testing.T) {
	result := &ComparisonResult{
		DiffImages: []DiffImage{
			{
				Old:       snapImageForPath("old/header.png"),
				New:       snapImageForPath("new/header.png"),
				ColorDiff: snapImageForPath("diff/header.png"),
				LcsDiff:   snapImageForPath("lcs/header.png"),
			},
		},
	}
	tree := BuildNavTree(result)

	leaf, ok := tree.Node("diff/header.png")
	require.True(t, ok)
	require.Equal(t, SnapNodeLeaf, leaf.Kind)
	require.Equal(t, CategoryChanged, leaf.Category)
	require.NotNil(t, leaf.Diff)
	require.Equal(t, "old/header.png", leaf.Diff.Old.Path)
	require.Equal(t, "new/header.png", leaf.Diff.New.Path)
	require.Equal(t, "lcs/header.png", leaf.Diff.LcsDiff.Path)

	keyPath, ok := tree.GroupKeyPath("diff/header.png")
	require.True(t, ok)
	require.Equal(t, []string{navKeyDiffChanged, "diff/header.png"}, keyPath)
}

func TestBuildNavTree_IsDeterministic(t *testing.T) {
	result := &ComparisonResult{
		CreatedImages: []SnapImage{
			snapImageForPath("created/a.png"),
			snapImageForPath("created/b.png"),
		},
		OldImages: []SnapImage{
			snapImageForPath("old/a.png"),
		},
		DiffImages: []DiffImage{
			{ColorDiff: snapImageForPath("diff/a.png")},
		},
	}

	first := BuildNavTree(result)
	second := BuildNavTree(result)

	require.Equal(t, first.LeafKeys(), second.LeafKeys())
	require.Equal(t, len(first.Roots), len(second.Roots))
	for idx := range first.Roots {
		require.Equal(t, first.Roots[idx].Data.Key, second.Roots[idx].Data.Key)
		require.Equal(t, first.Roots[idx].Data.Count, second.Roots[idx].Data.Count)
	}
}

func TestBuildNavTree_DuplicatePathsKeepFirstOccurrence(t *testing.T) {
	result := &ComparisonResult{
		CreatedImages: []SnapImage{
			{Name: "first", Path: "created/dup.png"},
			{Name: "second", Path: "created/dup.png"},
		},
	}
	tree := BuildNavTree(result)

	group, ok := tree.Node(navKeyDiffCreated)
	require.True(t, ok)
	require.Equal(t, 1, group.Count)

	leaf, ok := tree.Node("created/dup.png")
	require.True(t, ok)
	require.Equal(t, "first", leaf.Image.Name)
	require.Equal(t, []string{"created/dup.png"}, tree.LeafKeys())
}

func TestBuildNavTree_LeafOrderFollowsDisplayOrder(t *testing.T) {
	result := &ComparisonResult{
		DiffImages: []DiffImage{
			{ColorDiff: snapImageForPath("diff/a.png")},
			{ColorDiff: snapImageForPath("diff/b.png")},
		},
		CreatedImages: []SnapImage{snapImageForPath("created/c.png")},
		OldImages:     []SnapImage{snapImageForPath("old/d.png")},
	}
	tree := BuildNavTree(result)

	require.Equal(t, []string{
		"diff/a.png",
		"diff/b.png",
		"created/c.png",
		"old/d.png",
	}, tree.LeafKeys())
}

func TestSnapImage_Basename(t *testing.T) {
	require.Equal(t, "button.png", SnapImage{Path: "a/b/button.png"}.Basename())
	require.Equal(t, "button.png", SnapImage{Path: "button.png"}.Basename())
	require.Equal(t, "", SnapImage{}.Basename())
}

func snapImageForPath(path string) SnapImage {
	return SnapImage{
		Name:   SnapImage{Path: path}.Basename(),
		Path:   path,
		Width:  800,
		Height: 600,
	}
}
