package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"talky/internal/middleware"
	"talky/internal/models"
	"talky/internal/services"
	"talky/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the capability-URL surface: talk pages, comment
// posting, submission download and upload. Nothing here requires a
// login; possession of the right key is the authorization, and every
// failure mode is a 404.
type PublicHandler struct {
	*BaseHandler
	talks       *services.TalkService
	submissions *services.SubmissionService
	comments    *services.CommentService
	auth        *services.AuthService
	maxSize     int64
}

func NewPublicHandler(
	base *BaseHandler,
	talks *services.TalkService,
	submissions *services.SubmissionService,
	comments *services.CommentService,
	auth *services.AuthService,
	maxSize int64,
) *PublicHandler {
	return &PublicHandler{
		BaseHandler: base,
		talks:       talks,
		submissions: submissions,
		comments:    comments,
		auth:        auth,
		maxSize:     maxSize,
	}
}

func (h *PublicHandler) RegisterRoutes(r *gin.Engine) {
	view := r.Group("/view/:talkId/:key")
	{
		view.GET("/", h.ViewTalk)
		view.POST("/comment/", h.PostComment)
		view.GET("/comment/:commentId/delete/", h.DeleteCommentAsUser)
		view.GET("/submission/:version/", h.DownloadSubmission)
	}

	upload := r.Group("/upload/:talkId/:key")
	{
		upload.GET("/", h.UploadForm)
		upload.POST("/", h.Upload)
	}

	manage := r.Group("/manage/:talkId/:key")
	{
		manage.GET("/", h.ManageTalk)
		manage.GET("/comment/:commentId/delete/", h.DeleteCommentByKey)
		manage.GET("/submission/:submissionId/delete/", h.DeleteSubmissionByKey)
	}
}

type talkPage struct {
	Talk        *models.Talk
	Submissions []models.Submission
	Comments    []*services.CommentNode
	ViewURL     string
	UploadURL   string
	ManageURL   string
	Error       string
}

func (h *PublicHandler) buildPage(c *gin.Context, talk *models.Talk) (*talkPage, bool) {
	submissions, err := h.submissions.ListByTalk(talk.ID)
	if err != nil {
		apperrors.HandleError(c, err)
		return nil, false
	}
	tree, err := h.comments.Tree(talk.ID)
	if err != nil {
		apperrors.HandleError(c, err)
		return nil, false
	}
	return &talkPage{
		Talk:        talk,
		Submissions: submissions,
		Comments:    tree,
		ViewURL:     fmt.Sprintf("/view/%d/%s/", talk.ID, talk.ViewKey),
		UploadURL:   fmt.Sprintf("/upload/%d/%s/", talk.ID, talk.UploadKey),
		ManageURL:   fmt.Sprintf("/manage/%d/%s/", talk.ID, talk.ManageKey),
	}, true
}

// resolve loads the talk behind a capability URL, collapsing every
// failure into the same 404.
func (h *PublicHandler) resolve(c *gin.Context, lookup func(uint, string) (*models.Talk, error)) *models.Talk {
	id := h.ParamUint(c, "talkId")
	if id == 0 {
		apperrors.HandleError(c, apperrors.ErrTalkNotFound)
		return nil
	}
	talk, err := lookup(id, c.Param("key"))
	if err != nil {
		apperrors.HandleError(c, err)
		return nil
	}
	return talk
}

func (h *PublicHandler) ViewTalk(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByViewKey)
	if talk == nil {
		return
	}
	page, ok := h.buildPage(c, talk)
	if !ok {
		return
	}
	// The view page never exposes the privileged links.
	page.UploadURL = ""
	page.ManageURL = ""
	c.HTML(http.StatusOK, "view.html", page)
}

func (h *PublicHandler) PostComment(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByViewKey)
	if talk == nil {
		return
	}

	var input services.CommentInput
	if err := c.ShouldBind(&input); err != nil {
		apperrors.HandleError(c, apperrors.ErrInvalidComment)
		return
	}

	if _, err := h.comments.Create(talk, input); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/view/%d/%s/", talk.ID, talk.ViewKey))
}

// DeleteCommentAsUser is the logged-in moderation path on the public
// page. Anyone without a session that passes the management check sees
// the same 404 an invalid comment id produces.
func (h *PublicHandler) DeleteCommentAsUser(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByViewKey)
	if talk == nil {
		return
	}

	user := h.sessionUser(c)
	if !h.talks.CanManage(user, talk) {
		apperrors.HandleError(c, apperrors.ErrCommentNotFound)
		return
	}

	commentID := h.ParamUint(c, "commentId")
	if commentID == 0 {
		apperrors.HandleError(c, apperrors.ErrCommentNotFound)
		return
	}
	if err := h.comments.Delete(talk.ID, commentID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/view/%d/%s/", talk.ID, talk.ViewKey))
}

// DownloadSubmission streams one stored version. The version segment
// keeps its historical v-prefix shape, e.g. /submission/v2/.
func (h *PublicHandler) DownloadSubmission(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByViewKey)
	if talk == nil {
		return
	}

	raw := c.Param("version")
	if !strings.HasPrefix(raw, "v") {
		apperrors.HandleError(c, apperrors.ErrSubmissionNotFound)
		return
	}
	version, err := strconv.Atoi(strings.TrimPrefix(raw, "v"))
	if err != nil || version < 1 {
		apperrors.HandleError(c, apperrors.ErrSubmissionNotFound)
		return
	}

	submission, file, err := h.submissions.Open(c.Request.Context(), talk.ID, version)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", submission.Filename))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

func (h *PublicHandler) UploadForm(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByUploadKey)
	if talk == nil {
		return
	}
	page, ok := h.buildPage(c, talk)
	if !ok {
		return
	}
	page.ManageURL = ""
	c.HTML(http.StatusOK, "upload.html", page)
}

func (h *PublicHandler) Upload(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByUploadKey)
	if talk == nil {
		return
	}

	if h.maxSize > 0 && c.Request.ContentLength > h.maxSize {
		apperrors.HandleError(c, apperrors.ErrFileTooLarge)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("A file upload is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	_, err = h.submissions.Create(c.Request.Context(), talk.ID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/view/%d/%s/", talk.ID, talk.ViewKey))
}

func (h *PublicHandler) ManageTalk(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByManageKey)
	if talk == nil {
		return
	}
	page, ok := h.buildPage(c, talk)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "manage.html", page)
}

func (h *PublicHandler) DeleteCommentByKey(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByManageKey)
	if talk == nil {
		return
	}
	commentID := h.ParamUint(c, "commentId")
	if commentID == 0 {
		apperrors.HandleError(c, apperrors.ErrCommentNotFound)
		return
	}
	if err := h.comments.Delete(talk.ID, commentID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/manage/%d/%s/", talk.ID, talk.ManageKey))
}

func (h *PublicHandler) DeleteSubmissionByKey(c *gin.Context) {
	talk := h.resolve(c, h.talks.GetByManageKey)
	if talk == nil {
		return
	}
	submissionID := h.ParamUint(c, "submissionId")
	if submissionID == 0 {
		apperrors.HandleError(c, apperrors.ErrSubmissionNotFound)
		return
	}
	if err := h.submissions.Delete(c.Request.Context(), talk.ID, submissionID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/manage/%d/%s/", talk.ID, talk.ManageKey))
}

// sessionUser resolves the optional login on public pages. A missing
// or invalid session is simply nil, never an error.
func (h *PublicHandler) sessionUser(c *gin.Context) *models.User {
	if user := middleware.CurrentUser(c); user != nil {
		return user
	}
	token, err := c.Cookie(middleware.SessionCookie)
	if err != nil {
		return nil
	}
	user, err := h.auth.Authenticate(token)
	if err != nil {
		return nil
	}
	return user
}
