package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "github.com/vardhan998997/visual-product-matcer/pkg/aws"
)

const (
	ImageStoreCloudinary = "cloudinary"
	ImageStoreS3         = "s3"
)

// Config holds all environment variables for the matcher service.
type Config struct {
	Port        string
	Env         string
	CORSOrigins []string

	MongoURI string
	MongoDB  string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	ImageStore          string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	S3Bucket            string
	S3Prefix            string
	S3PublicURL         string
	S3Endpoint          string
	FetchMaxBytes       int64

	RedisURL         string
	AnalysisCacheTTL time.Duration

	AWS              aws_pkg.Options
	UseSecrets       bool
	SNSTopicARN      string
	MetricsEnabled   bool
	MetricsNamespace string
	LogGroup         string
}

// secretGetter is the part of aws_pkg.SecretsClient LoadConfig needs.
type secretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Secrets Manager names that override the matching environment variables.
const (
	secretGeminiKey        = "matcher/GEMINI_API_KEY"
	secretCloudinarySecret = "matcher/CLOUDINARY_API_SECRET"
	secretMongoURI         = "matcher/MONGODB_URI"
)

// LoadConfig loads environment variables into Config struct and validates them.
// If AWS_USE_SECRETS=true it will attempt to read secrets from Secrets Manager
// and fall back to env vars on failure.
func LoadConfig(ctx context.Context) (*Config, error) {
	cfg := configFromEnv(os.Getenv)

	var secrets secretGetter
	if cfg.UseSecrets {
		if awsCfg, err := aws_pkg.LoadAWSConfig(ctx, cfg.AWS); err == nil {
			secrets = aws_pkg.NewSecretsClient(awsCfg)
		}
	}
	applySecrets(ctx, cfg, secrets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:                get("PORT", "8080"),
		Env:                 get("APP_ENV", "development"),
		MongoURI:            get("MONGODB_URI", ""),
		MongoDB:             get("MONGODB_DB", "visual-product-matcher"),
		GeminiAPIKey:        get("GEMINI_API_KEY", ""),
		GeminiModel:         get("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		GeminiBaseURL:       get("GEMINI_BASE_URL", ""),
		ImageStore:          strings.ToLower(get("IMAGE_STORE", ImageStoreCloudinary)),
		CloudinaryCloudName: get("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    get("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: get("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    get("CLOUDINARY_FOLDER", "visual-product-matcher"),
		S3Bucket:            get("AWS_S3_BUCKET", ""),
		S3Prefix:            get("AWS_S3_PREFIX", "products/"),
		S3PublicURL:         get("AWS_S3_PUBLIC_URL", ""),
		RedisURL:            get("REDIS_URL", ""),
		AWS: aws_pkg.Options{
			Region:          get("AWS_REGION", "us-east-1"),
			Endpoint:        get("AWS_ENDPOINT", ""),
			AccessKeyID:     get("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: get("AWS_SECRET_ACCESS_KEY", ""),
		},
		UseSecrets:       get("AWS_USE_SECRETS", "") == "true",
		SNSTopicARN:      get("SNS_TOPIC_ARN", ""),
		MetricsEnabled:   get("CLOUDWATCH_METRICS_ENABLED", "") == "true",
		MetricsNamespace: get("CLOUDWATCH_NAMESPACE", "VisualProductMatcher"),
		LogGroup:         get("CLOUDWATCH_LOG_GROUP", ""),
	}
	cfg.S3Endpoint = get("AWS_S3_ENDPOINT", cfg.AWS.Endpoint)
	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	cfg.AnalysisCacheTTL = 24 * time.Hour
	if d, err := time.ParseDuration(get("ANALYSIS_CACHE_TTL", "")); err == nil && d > 0 {
		cfg.AnalysisCacheTTL = d
	}
	if n, err := strconv.ParseInt(get("IMAGE_FETCH_MAX_BYTES", ""), 10, 64); err == nil && n > 0 {
		cfg.FetchMaxBytes = n
	}
	return cfg
}

// applySecrets overrides env values with non-empty secrets. Lookup failures keep the
// env value.
func applySecrets(ctx context.Context, cfg *Config, secrets secretGetter) {
	if secrets == nil {
		return
	}
	overrides := map[string]*string{
		secretGeminiKey:        &cfg.GeminiAPIKey,
		secretCloudinarySecret: &cfg.CloudinaryAPISecret,
		secretMongoURI:         &cfg.MongoURI,
	}
	for name, target := range overrides {
		if v, err := secrets.GetSecret(ctx, name); err == nil && v != "" {
			*target = v
		}
	}
}

// Validate checks required fields for the selected image store.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return errors.New("MONGODB_URI is required")
	}
	switch c.ImageStore {
	case ImageStoreCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
		}
	case ImageStoreS3:
		if c.S3Bucket == "" {
			return errors.New("AWS_S3_BUCKET is required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_STORE %q", c.ImageStore)
	}
	return nil
}

// needsAWS reports whether any AWS client has to be built.
func (c *Config) needsAWS() bool {
	return c.ImageStore == ImageStoreS3 || c.SNSTopicARN != "" || c.MetricsEnabled || c.LogGroup != ""
}
