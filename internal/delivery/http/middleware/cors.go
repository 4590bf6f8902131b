package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS - Cross-Origin Resource Sharing для фронтенда визуализации.
// allowOrigins - список через запятую (API_CORS_ORIGINS).
func CORS(allowOrigins string) fiber.Handler {
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Accept,Accept-Encoding",
		ExposeHeaders:    "Content-Encoding",
		AllowCredentials: allowOrigins != "*",
		MaxAge:           600,
	})
}
