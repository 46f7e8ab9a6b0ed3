package services

import "talky/internal/models"

// CommentNode is one comment plus its replies.
type CommentNode struct {
	Comment  models.Comment `json:"comment"`
	Children []*CommentNode `json:"children,omitempty"`
}

// BuildCommentTree turns a flat, chronologically ordered comment slice
// into a forest. Sibling order follows the input order at every depth.
// A comment whose parent is absent from the slice is promoted to the
// top level rather than dropped, so replies survive the deletion of
// their ancestor.
func BuildCommentTree(comments []models.Comment) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{Comment: comments[i]}
	}

	var roots []*CommentNode
	for i := range comments {
		node := nodes[comments[i].ID]
		parentID := comments[i].ParentCommentID
		if parentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*parentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
