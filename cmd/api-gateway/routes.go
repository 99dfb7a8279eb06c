package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/room-scheduling-api/api/swagger"
	"github.com/noah-isme/room-scheduling-api/internal/middleware"
	"github.com/noah-isme/room-scheduling-api/pkg/config"
	"github.com/noah-isme/room-scheduling-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/room-scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/room-scheduling-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))

	r.GET("/health", app.observe.Health)
	r.GET("/ready", app.observe.Ready)
	r.GET("/metrics", app.observe.Prometheus)

	if cfg.EnableDocs && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(app.tokens))

	write := middleware.RequireRoles(middleware.SchedulerRoles...)
	audit := func(action string) gin.HandlerFunc {
		return middleware.Audit(logr, action, "room_assignment")
	}

	assignments := api.Group("/room-assignments")
	assignments.POST("", write, audit("ROOM_ASSIGN"), app.assignments.Assign)
	assignments.POST("/bulk", write, audit("ROOM_ASSIGN_BULK"), app.assignments.AssignMultiple)
	assignments.GET("/:id", app.assignments.Get)
	assignments.PATCH("/:id", write, audit("ROOM_ASSIGNMENT_UPDATE"), app.assignments.Update)
	assignments.DELETE("/:id", write, audit("ROOM_ASSIGNMENT_DELETE"), app.assignments.Delete)
	assignments.POST("/:id/deassign", write, audit("ROOM_DEASSIGN"), app.assignments.Deassign)
	assignments.POST("/:id/reactivate", write, audit("ROOM_REACTIVATE"), app.assignments.Reactivate)

	activities := api.Group("/activities/:activityId")
	activities.GET("/room-assignments", app.assignments.ListByActivity)
	activities.GET("/room-suggestions", app.availability.Suggest)
	activities.GET("/rooms/:roomId/availability", app.availability.Verify)
	activities.POST("/rooms/:roomId/change", write, audit("ROOM_CHANGE"), app.assignments.ChangeRoom)

	rooms := api.Group("/rooms")
	rooms.GET("/occupancy/export", app.occupancy.Export)
	rooms.GET("/:roomId/occupancy", app.occupancy.Get)
	rooms.GET("/:roomId/room-assignments", app.assignments.ListByRoom)

	return r
}
