package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/filestore"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, files *filestore.Store) {
	telegramService := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
	orderService := services.NewOrderService(db, telegramService, cfg.TransitionPolicy(), cfg.Currency)
	promoService := services.NewPromoService(db)

	authHandler := handlers.NewAuthHandler(db, cfg)
	profileHandler := handlers.NewProfileHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db, cfg.Currency)
	orderHandler := handlers.NewOrderHandler(orderService)
	promoHandler := handlers.NewPromoHandler(promoService)
	marketingHandler := handlers.NewMarketingHandler(db)
	settingsHandler := handlers.NewSettingsHandler(db, files)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxUploadBytes())
	adminHandler := handlers.NewAdminHandler(db, orderService)

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	requireAuth := middleware.AuthMiddleware(cfg)
	adminOnly := []fiber.Handler{requireAuth, middleware.AdminOnly()}
	admin := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, adminOnly...), h)
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	profile := api.Group("/profile", requireAuth)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Put("/password", profileHandler.ChangePassword)

	// Catalog routes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", admin(catalogHandler.CreateCategory)...)
	categories.Put("/:id", admin(catalogHandler.UpdateCategory)...)
	categories.Delete("/:id", admin(catalogHandler.DeleteCategory)...)

	productHandler.RegisterProductRoutes(api.Group("/products"), adminOnly...)

	// Marketing resources
	banners := api.Group("/banners")
	banners.Get("/", marketingHandler.ListBanners)
	banners.Post("/", admin(marketingHandler.CreateBanner)...)
	banners.Put("/:id", admin(marketingHandler.UpdateBanner)...)
	banners.Delete("/:id", admin(marketingHandler.DeleteBanner)...)

	offers := api.Group("/offers")
	offers.Get("/", marketingHandler.ListOffers)
	offers.Get("/:id", marketingHandler.GetOffer)
	offers.Post("/", admin(marketingHandler.CreateOffer)...)
	offers.Put("/:id", admin(marketingHandler.UpdateOffer)...)
	offers.Delete("/:id", admin(marketingHandler.DeleteOffer)...)

	// Promo codes and pricing
	promos := api.Group("/promo-codes")
	promos.Get("/", promoHandler.ListPromoCodes)
	promos.Post("/apply", promoHandler.ApplyPromoCode)
	promos.Post("/", admin(promoHandler.CreatePromoCode)...)
	promos.Put("/:id", admin(promoHandler.UpdatePromoCode)...)
	promos.Delete("/:id", admin(promoHandler.DeletePromoCode)...)

	api.Post("/cart/quote", promoHandler.QuoteCart)

	// Orders
	orders := api.Group("/orders")
	orders.Post("/create", middleware.OptionalAuth(cfg), orderHandler.CreateOrder)
	orders.Post("/update-screenshot", orderHandler.UpdateScreenshot)
	orders.Get("/statuses", orderHandler.OrderStatuses)
	orders.Get("/mine", requireAuth, orderHandler.ListMyOrders)
	orders.Get("/", admin(orderHandler.ListOrders)...)
	orders.Patch("/", admin(orderHandler.UpdateStatus)...)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Delete("/:id", admin(orderHandler.DeleteOrder)...)

	// Flat-file documents
	api.Get("/payment-settings", settingsHandler.GetPaymentSettings)
	api.Put("/payment-settings", admin(settingsHandler.UpdatePaymentSettings)...)

	videos := api.Group("/videos")
	videos.Get("/", settingsHandler.ListVideos)
	videos.Post("/", admin(settingsHandler.CreateVideo)...)
	videos.Put("/:id", admin(settingsHandler.UpdateVideo)...)
	videos.Delete("/:id", admin(settingsHandler.DeleteVideo)...)

	coins := api.Group("/crypto-coins")
	coins.Get("/", settingsHandler.ListCryptoCoins)
	coins.Post("/", admin(settingsHandler.CreateCryptoCoin)...)
	coins.Put("/:id", admin(settingsHandler.UpdateCryptoCoin)...)
	coins.Delete("/:id", admin(settingsHandler.DeleteCryptoCoin)...)

	api.Get("/site-settings", settingsHandler.GetSiteSettings)
	api.Put("/site-settings", admin(settingsHandler.UpdateSiteSettings)...)

	// Uploads
	api.Post("/upload/screenshot", uploadHandler.UploadScreenshot)
	api.Post("/upload", admin(uploadHandler.Upload)...)

	// Back office
	adminGroup := api.Group("/admin", adminOnly...)
	adminGroup.Get("/stats", adminHandler.DashboardStats)
	adminGroup.Get("/users", adminHandler.ListAllUsers)
	adminGroup.Get("/orders/recent", adminHandler.RecentOrders)
	adminGroup.Get("/orders/export", adminHandler.ExportOrders)
}
