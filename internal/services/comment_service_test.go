package services

import (
	"context"
	"strings"
	"testing"

	"talky/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")

	cases := []struct {
		name  string
		input CommentInput
		want  error
	}{
		{"empty name", CommentInput{Name: "  ", Email: "a@b.c", Comment: "hi"}, apperrors.ErrInvalidComment},
		{"empty email", CommentInput{Name: "A", Email: "", Comment: "hi"}, apperrors.ErrInvalidComment},
		{"blank comment", CommentInput{Name: "A", Email: "a@b.c", Comment: " \t "}, apperrors.ErrInvalidComment},
		{"email without at", CommentInput{Name: "A", Email: "not-an-email", Comment: "hi"}, apperrors.ErrInvalidCommentEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.comments.Create(talk, tc.input)
			assert.Equal(t, tc.want, err)
			assert.Equal(t, 400, apperrors.HTTPStatus(err))
		})
	}
}

func TestCommentRejectsForeignParent(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	other := env.talk(t, "other@example.org")

	foreign, err := env.comments.Create(other, CommentInput{
		Name: "B", Email: "b@example.org", Comment: "on the other talk",
	})
	require.NoError(t, err)
	env.dispatcher.Wait()

	_, err = env.comments.Create(talk, CommentInput{
		Name: "A", Email: "a@example.org", Comment: "reply",
		ParentCommentID: &foreign.ID,
	})
	assert.Equal(t, apperrors.ErrInvalidParentComment, err)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	missing := uint(424242)
	_, err = env.comments.Create(talk, CommentInput{
		Name: "A", Email: "a@example.org", Comment: "reply",
		ParentCommentID: &missing,
	})
	assert.Equal(t, apperrors.ErrInvalidParentComment, err)
}

func TestCommentPinsLatestSubmission(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")

	early, err := env.comments.Create(talk, CommentInput{
		Name: "A", Email: "a@example.org", Comment: "before any slides",
	})
	require.NoError(t, err)
	assert.Nil(t, early.SubmissionID)

	sub, err := env.submissions.Create(context.Background(), talk.ID, "slides.pdf", 5, strings.NewReader("bytes"))
	require.NoError(t, err)
	env.dispatcher.Wait()

	late, err := env.comments.Create(talk, CommentInput{
		Name: "B", Email: "b@example.org", Comment: "about the slides",
	})
	require.NoError(t, err)
	env.dispatcher.Wait()

	require.NotNil(t, late.SubmissionID)
	assert.Equal(t, sub.ID, *late.SubmissionID)
}

func TestCommentDeleteScopedToTalk(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	other := env.talk(t, "other@example.org")

	created, err := env.comments.Create(talk, CommentInput{
		Name: "A", Email: "a@example.org", Comment: "hi",
	})
	require.NoError(t, err)
	env.dispatcher.Wait()

	err = env.comments.Delete(other.ID, created.ID)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	require.NoError(t, env.comments.Delete(talk.ID, created.ID))

	err = env.comments.Delete(talk.ID, created.ID)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestCommentTreeFromService(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")

	root, err := env.comments.Create(talk, CommentInput{
		Name: "A", Email: "a@example.org", Comment: "root",
	})
	require.NoError(t, err)
	_, err = env.comments.Create(talk, CommentInput{
		Name: "B", Email: "b@example.org", Comment: "reply",
		ParentCommentID: &root.ID,
	})
	require.NoError(t, err)
	_, err = env.comments.Create(talk, CommentInput{
		Name: "C", Email: "c@example.org", Comment: "another root",
	})
	require.NoError(t, err)
	env.dispatcher.Wait()

	tree, err := env.comments.Tree(talk.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, root.ID, tree[0].Comment.ID)
	require.Len(t, tree[0].Children, 1)
}
