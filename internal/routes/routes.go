// Package routes assembles the full HTTP surface: public capability
// URLs at the root, the admin JSON API under /secure.
package routes

import (
	"talky/internal/config"
	"talky/internal/handlers"
	"talky/internal/middleware"
	"talky/internal/models"
	"talky/internal/services"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, cfg *config.Config, container *services.ServiceContainer) {
	base := handlers.NewBaseHandler()

	public := handlers.NewPublicHandler(
		base,
		container.Talks,
		container.Submissions,
		container.Comments,
		container.Auth,
		cfg.Upload.MaxSize,
	)
	public.RegisterRoutes(r)

	secure := r.Group("/secure")
	handlers.NewAuthHandler(base, container.Auth).RegisterRoutes(secure)

	api := secure.Group("/api", middleware.Auth(container.Auth))
	{
		handlers.NewTalkHandler(base, container.Talks).RegisterRoutes(api.Group("/talks"))

		categories := handlers.NewCrudHandler(base, handlers.UserScoped[models.Category](
			"experiment_id",
			func(c *models.Category) uint { return c.ExperimentID },
			func(c *models.Category, id uint) { c.ExperimentID = id },
		))
		categories.RegisterRoutes(api.Group("/categories"))

		contacts := handlers.NewCrudHandler(base, handlers.UserScoped[models.Contact](
			"experiment_id",
			func(c *models.Contact) uint { return c.ExperimentID },
			func(c *models.Contact, id uint) { c.ExperimentID = id },
		))
		contacts.RegisterRoutes(api.Group("/contacts"))

		conferences := handlers.NewCrudHandler(base, handlers.AdminScoped[models.Conference]())
		conferences.RegisterRoutes(api.Group("/conferences"))

		experiments := handlers.NewCrudHandler(base, handlers.AdminScoped[models.Experiment]())
		experiments.RegisterRoutes(api.Group("/experiments"))

		users := api.Group("/users", middleware.RequireRoles(models.RoleSuperuser))
		handlers.NewUserHandler(base, container.Users).RegisterRoutes(users)
	}
}
