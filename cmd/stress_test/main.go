package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/supplydesk/internal/adapter/storage"
	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/core/service"
)

const (
	itemName      = "Stress Item"
	initialStock  = 30
	totalRequests = 50
	// Reservations stop once the item falls to the low-stock threshold.
	expectedReserved = initialStock - domain.LowStockThreshold
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dir, err := os.MkdirTemp("", "supplydesk-stress")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := storage.OpenSQLite(filepath.Join(dir, "stress.db"))
	if err != nil {
		log.Fatalf("failed to open sqlite: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	inventory := service.NewInventoryService(store, logger)
	if _, err := inventory.Register(ctx, itemName, initialStock, ""); err != nil {
		log.Fatalf("failed to register item: %v", err)
	}
	user, err := store.EnsureUser(ctx, "stress_sales", domain.RoleSales)
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}

	opts := []service.Option{service.WithLogger(logger)}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()
		cache := storage.NewRedisAdapter(rdb)
		opts = append(opts, service.WithCache(cache), service.WithLocker(cache))
	}
	requests := service.NewRequestService(store, store, inventory, opts...)

	// Counters
	var reservedCount atomic.Int32
	var forwardedCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			req, err := requests.Submit(ctx, service.SubmitInput{
				SubmitterID:    user.ID,
				Role:           domain.RoleSales,
				Message:        fmt.Sprintf("stress order %d", n),
				Product:        itemName,
				Quantity:       1,
				IdempotencyKey: fmt.Sprintf("stress-%d-%d", start.UnixNano(), n),
			})
			switch {
			case err != nil:
				failCount.Add(1)
			case req.Status == domain.StatusInTransit:
				reservedCount.Add(1)
			case req.Status == domain.StatusForwardedToProduction:
				forwardedCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	reserved := reservedCount.Load()
	forwarded := forwardedCount.Load()
	failed := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("In Transit:       %d\n", reserved)
	fmt.Printf("Forwarded:        %d\n", forwarded)
	fmt.Printf("Failed:           %d\n", failed)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if reserved == expectedReserved && forwarded == totalRequests-expectedReserved {
		fmt.Printf("PASS: Exactly %d requests reserved stock, %d forwarded\n", expectedReserved, forwarded)
	} else {
		fmt.Printf("FAIL: Expected %d reserved/%d forwarded, got %d/%d (%d failed)\n",
			expectedReserved, totalRequests-expectedReserved, reserved, forwarded, failed)
	}

	item, err := inventory.Get(ctx, itemName)
	if err != nil {
		log.Fatalf("failed to read item: %v", err)
	}
	fmt.Printf("Final Stock: %d (%s)\n", item.Quantity, item.Status)

	if item.Quantity == domain.LowStockThreshold && item.Status == domain.StockStatusLowStock {
		fmt.Println("PASS: Stock stopped at the low-stock threshold")
	} else {
		fmt.Printf("FAIL: Expected stock %d/%s, got %d/%s\n",
			domain.LowStockThreshold, domain.StockStatusLowStock, item.Quantity, item.Status)
	}
}
