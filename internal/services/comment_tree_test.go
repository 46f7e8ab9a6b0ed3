package services

import (
	"testing"
	"time"

	"talky/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comment(id uint, parent *uint, offset time.Duration) models.Comment {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Comment{
		BaseModel: models.BaseModel{ID: id},
		Name:      "someone",
		Email:     "someone@example.org",
		Comment:   "text",
		Time:      base.Add(offset),
		TalkID:    1,
		ParentCommentID: func() *uint {
			return parent
		}(),
	}
}

func TestBuildCommentTreeThreadsReplies(t *testing.T) {
	c1ID := uint(1)
	comments := []models.Comment{
		comment(1, nil, 0),
		comment(2, &c1ID, time.Minute),
		comment(3, nil, 2*time.Minute),
	}

	roots := BuildCommentTree(comments)

	require.Len(t, roots, 2)
	assert.Equal(t, uint(1), roots[0].Comment.ID)
	assert.Equal(t, uint(3), roots[1].Comment.ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, uint(2), roots[0].Children[0].Comment.ID)
	assert.Empty(t, roots[1].Children)
}

func TestBuildCommentTreeKeepsSiblingOrder(t *testing.T) {
	rootID := uint(1)
	comments := []models.Comment{
		comment(1, nil, 0),
		comment(2, &rootID, time.Minute),
		comment(3, &rootID, 2*time.Minute),
		comment(4, &rootID, 3*time.Minute),
	}

	roots := BuildCommentTree(comments)

	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 3)
	for i, want := range []uint{2, 3, 4} {
		assert.Equal(t, want, roots[0].Children[i].Comment.ID)
	}
}

func TestBuildCommentTreePromotesOrphans(t *testing.T) {
	missing := uint(99)
	comments := []models.Comment{
		comment(1, nil, 0),
		comment(2, &missing, time.Minute),
	}

	roots := BuildCommentTree(comments)

	require.Len(t, roots, 2)
	assert.Equal(t, uint(2), roots[1].Comment.ID)
}

func TestBuildCommentTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildCommentTree(nil))
}
