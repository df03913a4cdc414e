package routers

import (
	"github.com/gofiber/fiber/v2"

	"video-processor/internal/delivery/http/handlers"
)

func SetupVideoRoutes(app *fiber.App, apiPrefix string, videoHandler *handlers.VideoHandler) {
	api := app.Group(apiPrefix)

	queue := api.Group("/video-queue")
	queue.Post("/enqueue", videoHandler.Enqueue)
	queue.Get("/status/:jobId?", videoHandler.Status)
	queue.Post("/remove-variant", videoHandler.RemoveVariant)
	queue.Post("/replace-original", videoHandler.ReplaceOriginal)

	// Host document routes
	api.Post("/:collection", videoHandler.CreateDocument)
	api.Get("/:collection/:id", videoHandler.GetDocument)
}
