package handlers

import (
	"net/http"

	"talky/internal/middleware"
	"talky/internal/models"
	"talky/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Policy parameterises a CRUD resource's authorization. The same
// handler serves user-scoped resources (rows filtered to the caller's
// experiment) and admin-scoped ones (superuser only) depending on the
// policy it is given. Object-level denials surface as 404.
type Policy[T any] struct {
	// Scope narrows list and lookup queries to rows the user may see.
	Scope func(user *models.User, q *gorm.DB) *gorm.DB

	// CanWrite gates create, update and delete on one object.
	CanWrite func(user *models.User, obj *T) bool

	// Prepare forces server-controlled fields before a write. May be nil.
	Prepare func(user *models.User, obj *T)
}

// UserScoped limits non-superusers to rows of their own experiment and
// pins created rows to it. The experiment column name is injected
// because gorm table prefixes differ per entity.
func UserScoped[T any](column string, experimentID func(*T) uint, setExperiment func(*T, uint)) Policy[T] {
	return Policy[T]{
		Scope: func(user *models.User, q *gorm.DB) *gorm.DB {
			if user.IsSuperuser() {
				return q
			}
			return q.Where(column+" = ?", user.ExperimentID)
		},
		CanWrite: func(user *models.User, obj *T) bool {
			return user.IsSuperuser() || experimentID(obj) == user.ExperimentID
		},
		Prepare: func(user *models.User, obj *T) {
			if !user.IsSuperuser() {
				setExperiment(obj, user.ExperimentID)
			}
		},
	}
}

// AdminScoped restricts every operation to superusers.
func AdminScoped[T any]() Policy[T] {
	return Policy[T]{
		Scope: func(user *models.User, q *gorm.DB) *gorm.DB {
			if user.IsSuperuser() {
				return q
			}
			// A non-superuser sees an empty collection, not an error.
			return q.Where("1 = 0")
		},
		CanWrite: func(user *models.User, obj *T) bool {
			return user.IsSuperuser()
		},
	}
}

// CrudHandler is the generic admin CRUD surface for catalog entities.
type CrudHandler[T any] struct {
	*BaseHandler
	policy Policy[T]
}

func NewCrudHandler[T any](base *BaseHandler, policy Policy[T]) *CrudHandler[T] {
	return &CrudHandler[T]{BaseHandler: base, policy: policy}
}

func (h *CrudHandler[T]) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

func (h *CrudHandler[T]) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var items []T
	q := h.policy.Scope(user, h.GetDB(c).Model(new(T))).Order("id")
	if err := q.Find(&items).Error; err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *CrudHandler[T]) Get(c *gin.Context) {
	obj := h.lookup(c)
	if obj == nil {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func (h *CrudHandler[T]) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	obj := new(T)
	if !h.BindAndValidate(c, obj) {
		return
	}
	if h.policy.Prepare != nil {
		h.policy.Prepare(user, obj)
	}
	if !h.policy.CanWrite(user, obj) {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}
	if err := h.GetDB(c).Create(obj).Error; err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	c.JSON(http.StatusCreated, obj)
}

func (h *CrudHandler[T]) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)

	existing := h.lookup(c)
	if existing == nil {
		return
	}
	if !h.policy.CanWrite(user, existing) {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}

	obj := new(T)
	if !h.BindAndValidate(c, obj) {
		return
	}
	if h.policy.Prepare != nil {
		h.policy.Prepare(user, obj)
	}
	if !h.policy.CanWrite(user, obj) {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}

	id := h.ParamUint(c, "id")
	if err := h.GetDB(c).Model(existing).Where("id = ?", id).Updates(obj).Error; err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *CrudHandler[T]) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	existing := h.lookup(c)
	if existing == nil {
		return
	}
	if !h.policy.CanWrite(user, existing) {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}

	id := h.ParamUint(c, "id")
	if err := h.GetDB(c).Delete(new(T), id).Error; err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// lookup fetches one row within the caller's scope, writing the 404
// itself when there is nothing to return.
func (h *CrudHandler[T]) lookup(c *gin.Context) *T {
	user := middleware.CurrentUser(c)
	id := h.ParamUint(c, "id")
	if id == 0 {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return nil
	}

	obj := new(T)
	q := h.policy.Scope(user, h.GetDB(c).Model(new(T)))
	if err := q.First(obj, id).Error; err != nil {
		apperrors.HandleError(c, apperrors.ErrNotFound(err))
		return nil
	}
	return obj
}
