package main

// SnapCategory identifies which image group a tree node belongs to.
type SnapCategory string

const (
	CategoryChanged SnapCategory = "changed"
	CategoryCreated SnapCategory = "created"
	CategoryDeleted SnapCategory = "deleted"
	CategoryNew     SnapCategory = "new"
	CategoryOld     SnapCategory = "old"
)

// Group node keys are fixed identifiers so the tree shape is deterministic
// across rebuilds of the same result.
const (
	navKeyHome        = "home"
	navKeyDiffChanged = "diff-changed"
	navKeyDiffCreated = "diff-created"
	navKeyDiffDeleted = "diff-deleted"
	navKeyNewImages   = "new-images"
	navKeyOldImages   = "old-images"
)

func defaultCategoryOrder() []SnapCategory {
	return []SnapCategory{CategoryChanged, CategoryCreated, CategoryDeleted, CategoryNew, CategoryOld}
}

func (c SnapCategory) DisplayName() string {
	switch c {
	case CategoryChanged:
		return "Changed"
	case CategoryCreated:
		return "Created"
	case CategoryDeleted:
		return "Deleted"
	case CategoryNew:
		return "New images"
	case CategoryOld:
		return "Old images"
	}
	return string(c)
}

func (c SnapCategory) GroupKey() string {
	switch c {
	case CategoryChanged:
		return navKeyDiffChanged
	case CategoryCreated:
		return navKeyDiffCreated
	case CategoryDeleted:
		return navKeyDiffDeleted
	case CategoryNew:
		return navKeyNewImages
	case CategoryOld:
		return navKeyOldImages
	}
	return string(c)
}
