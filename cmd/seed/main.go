package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// SeedProduct is one catalog entry of the import file.
type SeedProduct struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Discount    int64  `json:"discount"`
	Pinned      bool   `json:"pinned"`
	Type        string `json:"type"`
	FileURL     string `json:"fileUrl"`
	FunpayURL   string `json:"funpayUrl"`
	StarURL     string `json:"starUrl"`
}

func (p SeedProduct) fields() model.ProductFields {
	return model.ProductFields{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Discount:    p.Discount,
		Pinned:      p.Pinned,
		Type:        model.ProductType(p.Type),
		FileURL:     p.FileURL,
		FunpayURL:   p.FunpayURL,
		StarURL:     p.StarURL,
	}
}

func main() {
	source := flag.String("source", os.Getenv("SEED_SOURCE"), "products JSON file path or http(s) URL")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := run(context.Background(), cfg, *source, os.Getenv("ADMIN_PASSWORD"), logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, source, adminPassword string, logger *slog.Logger) error {
	if cfg.DBDriver == config.DriverMemory {
		return fmt.Errorf("seeding needs a persistent database, DB_DRIVER is %q", cfg.DBDriver)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	logger.Info("connected to database", "driver", cfg.DBDriver)

	if err := db.Migrate(gormDB, false, logger); err != nil {
		return err
	}

	authService := service.NewAuthService(repository.NewUserRepository(gormDB), auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL), cfg.AdminEmail, logger)
	// The seed never caches listings itself, but each import bumps the
	// listing generation a running server reads from REDIS_ADDR.
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	productService := service.NewProductService(repository.NewProductRepository(gormDB), cacheClient, 0, logger)

	if adminPassword != "" {
		if err := ensureAdmin(ctx, authService, cfg.AdminEmail, adminPassword, logger); err != nil {
			return err
		}
	}

	if source == "" {
		logger.Info("no product source given, skipping catalog import")
		return nil
	}

	items, err := loadProducts(ctx, source)
	if err != nil {
		return err
	}
	logger.Info("loaded products", "source", source, "count", len(items))

	created, skipped, err := importProducts(ctx, productService, items, logger)
	if err != nil {
		return err
	}
	logger.Info("seed completed", "created", created, "skipped", skipped)
	return nil
}

// ensureAdmin registers the bootstrap admin, or promotes it when the account
// already exists with a lower role.
func ensureAdmin(ctx context.Context, authService service.AuthService, email, password string, logger *slog.Logger) error {
	existing, err := authService.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up admin %s: %w", email, err)
	}

	if existing == nil {
		if _, err := authService.Register(ctx, email, password, "Admin"); err != nil {
			return fmt.Errorf("create admin %s: %w", email, err)
		}
		logger.Info("admin account created", "email", email)
		return nil
	}

	if !existing.IsAdmin() {
		if _, err := authService.PromoteToAdmin(ctx, email); err != nil {
			return fmt.Errorf("promote admin %s: %w", email, err)
		}
		logger.Info("existing account promoted to admin", "email", email)
	}
	return nil
}

// loadProducts reads the product list from a local file or an http(s) URL.
func loadProducts(ctx context.Context, source string) ([]SeedProduct, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		b, err := fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		body = b
	} else {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		body = b
	}

	var products []SeedProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return products, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// importProducts creates every product whose title is not yet in the
// catalog. Entries failing catalog validation are logged and skipped.
func importProducts(ctx context.Context, productService service.ProductService, items []SeedProduct, logger *slog.Logger) (created, skipped int, err error) {
	existing, err := productService.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list products: %w", err)
	}
	titles := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		titles[p.Title] = struct{}{}
	}

	for _, item := range items {
		if _, ok := titles[item.Title]; ok {
			skipped++
			continue
		}
		if err := service.ValidateProductFields(item.fields()); err != nil {
			logger.Warn("skipping invalid product", "title", item.Title, "error", err)
			skipped++
			continue
		}
		if _, err := productService.Create(ctx, item.fields()); err != nil {
			return created, skipped, fmt.Errorf("create product %q: %w", item.Title, err)
		}
		titles[item.Title] = struct{}{}
		created++
	}
	return created, skipped, nil
}
