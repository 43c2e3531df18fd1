package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/saisidhanth1551/CommUnity-care/internal/config"
	"github.com/saisidhanth1551/CommUnity-care/internal/db"
	"github.com/saisidhanth1551/CommUnity-care/internal/handlers"
	"github.com/saisidhanth1551/CommUnity-care/internal/middleware"
	"github.com/saisidhanth1551/CommUnity-care/internal/models"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.ServiceRequest{}); err != nil {
		log.Fatal(err)
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.FrontendBaseURL,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Length",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome to CommUnity Care API")
	})

	app.Static("/uploads", cfg.UploadDir)

	authH := &handlers.AuthHandler{
		DB:         gdb,
		JWTSecret:  cfg.JWTSecret,
		Expires:    cfg.JWTExpiresMin,
		UploadDir:  cfg.UploadDir,
		AppBaseURL: cfg.AppBaseURL,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	requestH := handlers.NewRequestHandler(gdb)
	ratingH := handlers.NewRatingHandler(gdb)
	workerH := handlers.NewWorkerHandler(gdb)
	categoryH := handlers.NewCategoryHandler()

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/ratings/worker/:workerId", ratingH.GetWorkerRatings)
	api.Get("/users/workers/category/:category", workerH.GetWorkersByCategory)

	// protected (bearer token)
	protected := api.Group("/", middleware.Protect(cfg.JWTSecret))

	protected.Get("/auth/user", authH.GetUser)
	protected.Put("/auth/user", authH.UpdateUser)
	protected.Delete("/auth/user", authH.DeleteUser)
	protected.Post("/auth/user/photo", authH.UploadPhoto)
	protected.Get("/users/profile", authH.GetUser)

	protected.Post("/requests",
		middleware.RequireRoles(string(models.RoleCustomer)),
		requestH.Create,
	)
	protected.Get("/requests",
		middleware.RequireRoles(string(models.RoleWorker), string(models.RoleAdmin)),
		requestH.GetAll,
	)
	protected.Get("/requests/my", requestH.GetMine)
	protected.Put("/requests/accept/:id",
		middleware.RequireRoles(string(models.RoleWorker)),
		requestH.Accept,
	)
	protected.Put("/requests/reject/:id",
		middleware.RequireRoles(string(models.RoleWorker)),
		requestH.Reject,
	)
	protected.Put("/requests/complete/:id",
		middleware.RequireRoles(string(models.RoleWorker)),
		requestH.Complete,
	)
	protected.Delete("/requests/:id", requestH.Cancel)

	protected.Post("/ratings",
		middleware.RequireRoles(string(models.RoleCustomer)),
		ratingH.RateWorker,
	)

	protected.Get("/workers/dashboard",
		middleware.RequireRoles(string(models.RoleWorker)),
		workerH.GetDashboardStats,
	)

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
