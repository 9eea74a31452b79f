package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/seed"
	"storefront/internal/infra/storage"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// repositories は DATA_BACKEND ごとの実装をまとめたもの。
type repositories struct {
	products   repo.ProductRepository
	assets     repo.ProductAssetRepository
	categories repo.CategoryRepository
	auditLogs  repo.AuditLogRepository
	tx         repo.TransactionManager
	health     handler.Pinger
	close      func()
}

func main() {
	//.env は無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	//Repository生成
	repos, err := newRepositories(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer repos.close()

	//カテゴリキャッシュ（Redis が無ければプロセス内）
	var categoryCache usecase.CategoryCache = cache.NewMemory(cfg.CategoryCacheTTL)
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CategoryCacheTTL)
		if err != nil {
			zl.Warn("redis unavailable, using in-process cache", zap.Error(err))
		} else {
			defer rc.Close()
			categoryCache = rc
		}
	}

	//assetsの公開URL
	var urls usecase.AssetURLResolver = storage.NewPublicBucketResolver(cfg.StoragePublicBaseURL)
	if cfg.CloudinaryURL != "" {
		cr, err := storage.NewCloudinaryResolver(cfg.CloudinaryURL)
		if err != nil {
			return err
		}
		urls = cr
	}

	//Usecase生成
	categoryUC := usecase.NewCategoryUsecase(repos.categories, categoryCache, zl)
	productUC := usecase.NewProductUsecase(usecase.ProductUsecaseDeps{
		Products:        repos.products,
		Assets:          repos.assets,
		Categories:      repos.categories,
		AuditLogs:       repos.auditLogs,
		Tx:              repos.tx,
		Trees:           categoryUC,
		URLs:            urls,
		Log:             zl,
		DefaultPageSize: cfg.DefaultPageSize,
		ShopPageSize:    cfg.ShopPageSize,
	})

	//Handler生成
	e := server.New(zl,
		handler.NewHealthHandler(repos.health),
		handler.NewCategoryHandler(categoryUC),
		handler.NewProductHandler(productUC),
		handler.NewAdminProductHandler(productUC, cfg),
	)

	//Server起動
	return server.Start(ctx, e, cfg.Addr(), zl)
}

func newRepositories(ctx context.Context, cfg config.Config, zl *zap.Logger) (repositories, error) {
	if cfg.DataBackend == config.BackendMemory {
		data := seed.Catalog()
		products := infraRepo.NewProductMemoryRepository(data.Products...)
		auditLogs := infraRepo.NewAuditLogMemoryRepository()
		zl.Info("using in-memory catalog", zap.Int("products", len(data.Products)))
		return repositories{
			products:   products,
			assets:     infraRepo.NewProductAssetMemoryRepository(data.Assets...),
			categories: infraRepo.NewCategoryMemoryRepository(data.Categories, data.Subcategories),
			auditLogs:  auditLogs,
			tx:         infraRepo.NewTxManagerMemory(products, auditLogs),
			close:      func() {},
		}, nil
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return repositories{}, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gormDB); err != nil {
			_ = db.Close(gormDB)
			return repositories{}, err
		}
	}

	pool, err := db.NewHealthPool(ctx, cfg)
	if err != nil {
		_ = db.Close(gormDB)
		return repositories{}, err
	}

	return repositories{
		products:   infraRepo.NewProductGormRepository(gormDB),
		assets:     infraRepo.NewProductAssetGormRepository(gormDB),
		categories: infraRepo.NewCategoryGormRepository(gormDB),
		auditLogs:  infraRepo.NewAuditLogGormRepository(gormDB),
		tx:         infraRepo.NewTxManagerGorm(gormDB),
		health:     pool,
		close: func() {
			pool.Close()
			if err := db.Close(gormDB); err != nil {
				zl.Warn("close db", zap.Error(err))
			}
		},
	}, nil
}
