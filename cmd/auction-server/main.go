package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auctionhouse/internal/api/handlers"
	"auctionhouse/internal/config"
	"auctionhouse/internal/domain"
	"auctionhouse/internal/infrastructure/memory"
	"auctionhouse/internal/infrastructure/mysql"
	redisinfra "auctionhouse/internal/infrastructure/redis"
	"auctionhouse/internal/services"
	"auctionhouse/pkg/clock"
	"auctionhouse/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting auction house server")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var rdb *redisClient.Client
	if cfg.Redis.Enabled {
		rdb = redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to Redis", "address", cfg.Redis.Address)
	}

	var (
		auctions domain.AuctionStore
		bids     domain.BidStore
	)
	switch cfg.Storage.Driver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			log.Error("Failed to open MySQL", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

		if err := db.PingContext(ctx); err != nil {
			log.Error("Failed to ping MySQL", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to MySQL")

		auctions = mysql.NewAuctionRepository(db)
		bids = mysql.NewBidRepository(db)
	default:
		store := memory.NewStore()
		auctions = store
		bids = store
	}

	var events domain.EventPublisher
	if cfg.Redis.Enabled {
		events = redisinfra.NewEventPublisher(rdb)
	} else {
		events = memory.NewEventLog()
	}

	var locker domain.AuctionLocker
	if cfg.Bidding.LockMode == "redis" {
		locker = redisinfra.NewAuctionLocker(rdb, cfg.Bidding.LockTTL)
	} else {
		locker = services.NewLocalAuctionLocker()
	}

	clk := clock.NewSystem()

	ledger := services.NewLedger(auctions, locker, clk, log)
	admission := services.NewAdmissionEngine(auctions, bids, locker, events, clk, cfg.Bidding.AllowSelfBid, log)
	settlement := services.NewSettlement(auctions, bids, clk, log)
	watcher := services.NewCloseWatcher(auctions, events, clk, log)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	auctionHandler := handlers.NewAuctionHandler(ledger, settlement, clk, log)
	bidHandler := handlers.NewBidHandler(admission, log)

	api := e.Group("/api")
	api.POST("/auctions", auctionHandler.CreateAuction)
	api.GET("/auctions", auctionHandler.ListAuctions)
	api.GET("/auctions/mine", auctionHandler.ListMyAuctions)
	api.GET("/auctions/won", auctionHandler.GetWonAuctions)
	api.GET("/auctions/:id", auctionHandler.GetAuction)
	api.PUT("/auctions/:id", auctionHandler.UpdateAuction)
	api.DELETE("/auctions/:id", auctionHandler.DeleteAuction)
	api.GET("/auctions/:id/winner", auctionHandler.GetWinner)
	api.GET("/auctions/:id/bids", bidHandler.ListBids)
	api.POST("/auctions/:id/bids", bidHandler.PlaceBid)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-server",
			"timestamp": clk.Now().Format(time.RFC3339),
		})
	})

	if err := watcher.Start(context.Background(), cfg.Watcher.Schedule); err != nil {
		log.Error("Failed to start close watcher", "error", err)
		os.Exit(1)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction house server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	watcher.Stop()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction house server stopped")
}
