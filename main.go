package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vardhan998997/visual-product-matcer/common/logger"
	"github.com/vardhan998997/visual-product-matcer/common/middleware"
	"github.com/vardhan998997/visual-product-matcer/controllers"
	"github.com/vardhan998997/visual-product-matcer/database"
	"github.com/vardhan998997/visual-product-matcer/matching"
	"github.com/vardhan998997/visual-product-matcer/media"
	aws_pkg "github.com/vardhan998997/visual-product-matcer/pkg/aws"
	"github.com/vardhan998997/visual-product-matcer/repository"
	"github.com/vardhan998997/visual-product-matcer/routes"
	"github.com/vardhan998997/visual-product-matcer/services"
	"github.com/vardhan998997/visual-product-matcer/storage"
)

const serviceName = "visual-product-matcher"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := LoadConfig(ctx)
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// --- 1. AWS and logging ---

	var awsCfg sdkaws.Config
	var awsErr error
	if cfg.needsAWS() {
		awsCfg, awsErr = aws_pkg.LoadAWSConfig(ctx, cfg.AWS)
	}

	var sink io.Writer
	if cfg.LogGroup != "" && awsErr == nil {
		if w, err := aws_pkg.NewLogWriter(ctx, awsCfg, cfg.LogGroup, serviceName); err == nil {
			sink = w
		}
	}

	log, err := logger.New(cfg.Env, sink)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if awsErr != nil {
		log.Fatal("Failed to load AWS config", zap.Error(awsErr))
	}
	if cfg.LogGroup != "" && sink == nil {
		log.Warn("CloudWatch log shipping disabled", zap.String("log_group", cfg.LogGroup))
	}

	// --- 2. Storage ---

	mongo, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	log.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB))

	productRepo := repository.NewMongoProductRepository(mongo.DB)
	if err := productRepo.EnsureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure product indexes", zap.Error(err))
	}

	fetcher := media.NewFetcher(nil, cfg.FetchMaxBytes)

	imageStore, err := newImageStore(cfg, awsCfg, fetcher)
	if err != nil {
		log.Fatal("Failed to initialize image store", zap.Error(err))
	}
	log.Info("Image store ready", zap.String("store", cfg.ImageStore))

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Warn("Failed to parse REDIS_URL, analysis cache disabled", zap.Error(err))
		} else {
			redisClient = redis.NewClient(redisOpts)
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				log.Warn("Redis not reachable, cache lookups will miss", zap.Error(err))
			}
			cancel()
		}
	}

	// --- 3. AWS side channels ---

	var publisher aws_pkg.SNSPublisher
	if cfg.SNSTopicARN != "" {
		publisher = aws_pkg.NewSNSClient(awsCfg)
	}
	var metrics *aws_pkg.MetricsClient
	if cfg.MetricsEnabled {
		metrics = aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, true)
	}

	// --- 4. Dependency Injection (Wiring the layers together) ---

	relations := services.NewRelationMaintainer(productRepo, imageStore, log)
	events := services.NewEventPublisher(publisher, cfg.SNSTopicARN)
	catalog := services.NewCatalogService(productRepo, imageStore, relations, events, log)
	searcher := services.NewSearchService(productRepo, matching.DefaultWeights, log)

	var generator services.Generator
	if cfg.GeminiAPIKey != "" {
		generator = services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	} else {
		log.Warn("GEMINI_API_KEY not set, /analyze will fail")
	}
	var cache *services.AnalysisCache
	if redisClient != nil {
		cache = services.NewAnalysisCache(redisClient, cfg.AnalysisCacheTTL, log)
	}
	analyzer := services.NewAnalyzer(generator, fetcher, cache, log)

	if metrics != nil {
		catalog.SetMetrics(metrics)
		analyzer.SetMetrics(metrics)
	}

	productController := controllers.NewProductController(catalog, log)
	analysisController := controllers.NewAnalysisController(analyzer, fetcher, log)
	searchController := controllers.NewSearchController(searcher, log)

	// --- 5. HTTP Server & Middleware ---

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	var recorder middleware.MetricsRecorder
	if metrics != nil {
		recorder = metrics
	}
	r.Use(middleware.Metrics(recorder, serviceName))
	r.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(r, productController, analysisController, searchController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// --- 6. Graceful Shutdown ---

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("Visual product matcher starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := mongo.Close(shutdownCtx); err != nil {
		log.Error("Failed to close MongoDB", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	log.Info("Visual product matcher stopped gracefully")
}

// newImageStore builds the store selected by IMAGE_STORE.
func newImageStore(cfg *Config, awsCfg sdkaws.Config, fetcher *media.Fetcher) (storage.ImageStore, error) {
	if cfg.ImageStore == ImageStoreS3 {
		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = true
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = sdkaws.String(cfg.S3Endpoint)
			}
		})
		publicURL := cfg.S3PublicURL
		switch {
		case publicURL != "":
		case cfg.S3Endpoint != "":
			publicURL = cfg.S3Endpoint + "/" + cfg.S3Bucket
		default:
			publicURL = "https://" + cfg.S3Bucket + ".s3." + awsCfg.Region + ".amazonaws.com"
		}
		return storage.NewS3Store(s3Client, fetcher, storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: publicURL,
		}), nil
	}
	store, err := storage.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	if err != nil {
		return nil, err
	}
	return store, nil
}
