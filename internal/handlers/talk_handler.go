package handlers

import (
	"net/http"

	"talky/internal/middleware"
	"talky/internal/models"
	"talky/internal/services"
	"talky/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// TalkHandler is the admin API for talks. Unlike the catalog entities
// it does not go through the generic CRUD handler: talk updates must
// run through TalkService so a speaker change regenerates the
// privileged keys inside the same transaction.
type TalkHandler struct {
	*BaseHandler
	talks *services.TalkService
}

func NewTalkHandler(base *BaseHandler, talks *services.TalkService) *TalkHandler {
	return &TalkHandler{BaseHandler: base, talks: talks}
}

func (h *TalkHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
	r.GET("/:id/manage-link", h.ManageLink)
}

func (h *TalkHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	talks, err := h.talks.List(0, 0)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if !user.IsSuperuser() {
		scoped := talks[:0]
		for _, t := range talks {
			if t.ExperimentID == user.ExperimentID {
				scoped = append(scoped, t)
			}
		}
		talks = scoped
	}
	c.JSON(http.StatusOK, gin.H{"items": talks})
}

func (h *TalkHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input services.CreateTalkInput
	if !h.BindAndValidate(c, &input) {
		return
	}
	if !user.IsSuperuser() {
		input.ExperimentID = user.ExperimentID
	}

	talk, err := h.talks.Create(input)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, talk)
}

func (h *TalkHandler) Get(c *gin.Context) {
	talk := h.authorized(c)
	if talk == nil {
		return
	}
	c.JSON(http.StatusOK, talk)
}

func (h *TalkHandler) Update(c *gin.Context) {
	talk := h.authorized(c)
	if talk == nil {
		return
	}

	var input services.UpdateTalkInput
	if !h.BindAndValidate(c, &input) {
		return
	}

	updated, err := h.talks.Update(talk.ID, input)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TalkHandler) Delete(c *gin.Context) {
	talk := h.authorized(c)
	if talk == nil {
		return
	}
	if err := h.talks.Delete(c.Request.Context(), talk.ID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ManageLink hands out the talk's capability URLs so an administrator
// can forward them.
func (h *TalkHandler) ManageLink(c *gin.Context) {
	talk := h.authorized(c)
	if talk == nil {
		return
	}
	c.JSON(http.StatusOK, h.talks.Links(talk))
}

// authorized loads the talk and applies the management check. Any
// denial, including a talk from another experiment, is a 404.
func (h *TalkHandler) authorized(c *gin.Context) *models.Talk {
	user := middleware.CurrentUser(c)
	id := h.ParamUint(c, "id")
	if id == 0 {
		apperrors.HandleError(c, apperrors.ErrTalkNotFound)
		return nil
	}
	talk, err := h.talks.GetByID(id)
	if err != nil {
		apperrors.HandleError(c, err)
		return nil
	}
	if !h.talks.CanManage(user, talk) {
		apperrors.HandleError(c, apperrors.ErrTalkNotFound)
		return nil
	}
	return talk
}
