package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"talky/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionVersionsIncrement(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	ctx := context.Background()

	first, err := env.submissions.Create(ctx, talk.ID, "report.pdf", 10, strings.NewReader("first slides"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := env.submissions.Create(ctx, talk.ID, "report.pdf", 10, strings.NewReader("second slides"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	env.dispatcher.Wait()
}

func TestDeletedVersionsAreNeverReused(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	ctx := context.Background()

	first, err := env.submissions.Create(ctx, talk.ID, "report.pdf", 10, strings.NewReader("v1"))
	require.NoError(t, err)
	_, err = env.submissions.Create(ctx, talk.ID, "report.pdf", 10, strings.NewReader("v2"))
	require.NoError(t, err)
	env.dispatcher.Wait()

	require.NoError(t, env.submissions.Delete(ctx, talk.ID, first.ID))

	third, err := env.submissions.Create(ctx, talk.ID, "report.pdf", 10, strings.NewReader("v3"))
	require.NoError(t, err)
	assert.Equal(t, 3, third.Version)
	env.dispatcher.Wait()
}

func TestSubmissionValidation(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	ctx := context.Background()

	_, err := env.submissions.Create(ctx, talk.ID, "x.zip", 10, strings.NewReader("zip"))
	assert.Equal(t, apperrors.ErrInvalidFileType, err)

	_, err = env.submissions.Create(ctx, talk.ID, "   ", 10, strings.NewReader("anon"))
	assert.Equal(t, apperrors.ErrEmptyFilename, err)

	_, err = env.submissions.Create(ctx, talk.ID, "big.pdf", 2*1024*1024, strings.NewReader("big"))
	assert.Equal(t, apperrors.ErrFileTooLarge, err)

	// None of the rejects may have left a row behind.
	subs, listErr := env.submissions.ListByTalk(talk.ID)
	require.NoError(t, listErr)
	assert.Empty(t, subs)
}

func TestSubmissionRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	ctx := context.Background()

	created, err := env.submissions.Create(ctx, talk.ID, "slides.pdf", 12, strings.NewReader("pdf contents"))
	require.NoError(t, err)
	env.dispatcher.Wait()

	got, file, err := env.submissions.Open(ctx, talk.ID, created.Version)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "pdf contents", string(data))
	assert.Equal(t, "slides.pdf", got.Filename)
}

func TestSubmissionDeleteRemovesFile(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	ctx := context.Background()

	created, err := env.submissions.Create(ctx, talk.ID, "slides.pdf", 5, strings.NewReader("bytes"))
	require.NoError(t, err)
	env.dispatcher.Wait()

	stored := SubmissionPath(talk.ID, created.Version, created.Filename)
	exists, err := env.store.Exists(ctx, stored)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, env.submissions.Delete(ctx, talk.ID, created.ID))

	exists, err = env.store.Exists(ctx, stored)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting again, file already gone, reads as missing but does not
	// blow up on the storage side.
	err = env.submissions.Delete(ctx, talk.ID, created.ID)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestSubmissionDeleteRequiresMatchingTalk(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	other := env.talk(t, "other@example.org")
	ctx := context.Background()

	created, err := env.submissions.Create(ctx, talk.ID, "slides.pdf", 5, strings.NewReader("bytes"))
	require.NoError(t, err)
	env.dispatcher.Wait()

	err = env.submissions.Delete(ctx, other.ID, created.ID)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestOpenMissingFileReportsGone(t *testing.T) {
	env := newTestEnv(t)
	talk := env.talk(t, "speaker@example.org")
	ctx := context.Background()

	created, err := env.submissions.Create(ctx, talk.ID, "slides.pdf", 5, strings.NewReader("bytes"))
	require.NoError(t, err)
	env.dispatcher.Wait()

	require.NoError(t, env.store.Delete(ctx, SubmissionPath(talk.ID, created.Version, created.Filename)))

	_, _, err = env.submissions.Open(ctx, talk.ID, created.Version)
	assert.Equal(t, apperrors.ErrSubmissionGone, err)
	assert.Equal(t, 410, apperrors.HTTPStatus(err))
}
