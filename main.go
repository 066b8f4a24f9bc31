package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"study-discipline-system/handlers"
	"study-discipline-system/middleware"
	"study-discipline-system/models"
	"study-discipline-system/services"
	"study-discipline-system/utils"
	"study-discipline-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Restriction{},
		&models.Season{},
		&models.LeagueSnapshot{},
		&models.FocusSession{},
		&models.UserEvent{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	redisClient, err := utils.NewRedisClient()
	if err != nil {
		log.Fatal("failed to connect to Redis:", err)
	}

	eventService := services.NewEventService(db)
	restrictionService := services.NewRestrictionService(db, eventService)
	leagueService := services.NewLeagueService(db, redisClient)
	focusService := services.NewFocusService(db, restrictionService, eventService)

	// --- Identity service feed for the profile mirror ---
	identityServiceURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityServiceURL == "" {
		log.Fatal("IDENTITY_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewProfileSyncWorker(db, identityServiceURL, "/api/v1/public/profiles", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Profile Sync Worker...")
		syncWorker.Start(ctx)
	}()

	restrictionService.StartExpirySweep()

	handlers.SetupLeagueRoutes(app, leagueService)
	handlers.SetupRestrictionRoutes(app, restrictionService)
	handlers.SetupFocusRoutes(app, focusService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Restriction expiry sweep running (hourly)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
