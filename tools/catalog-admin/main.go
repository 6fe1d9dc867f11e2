// Command catalog-admin runs one-off maintenance jobs against the products collection.
//
//	catalog-admin import [-file products.json] [-replace] [-relink]
//	catalog-admin backfill
//	catalog-admin relink
//	catalog-admin indexes
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vardhan998997/visual-product-matcer/common/logger"
	"github.com/vardhan998997/visual-product-matcer/database"
	"github.com/vardhan998997/visual-product-matcer/models"
	"github.com/vardhan998997/visual-product-matcer/repository"
	"github.com/vardhan998997/visual-product-matcer/services"
)

const usage = "usage: catalog-admin <import|backfill|relink|indexes> [flags]"

// importRecord is one entry of the import file.
type importRecord struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Tags        []string `json:"tags"`
	Colors      []string `json:"colors"`
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"), nil)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	mongoURI := fs.String("mongo", os.Getenv("MONGODB_URI"), "MongoDB URI")
	dbName := fs.String("db", envOr("MONGODB_DB", "visual-product-matcher"), "MongoDB database name")
	file := fs.String("file", "products.json", "import: JSON array of products")
	replace := fs.Bool("replace", false, "import: delete all products first")
	relink := fs.Bool("relink", false, "import: rebuild relations afterwards")
	_ = fs.Parse(args)

	if *mongoURI == "" {
		log.Fatal("MONGODB_URI must be set or provided via -mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	mongo, err := database.Connect(ctx, *mongoURI, *dbName)
	if err != nil {
		log.Fatal("mongo connect", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	repo := repository.NewMongoProductRepository(mongo.DB)
	relations := services.NewRelationMaintainer(repo, nil, log)

	switch command {
	case "import":
		err = runImport(ctx, repo, relations, log, *file, *replace, *relink)
	case "backfill":
		var modified int64
		modified, err = repo.BackfillDefaults(ctx)
		log.Info("Backfill complete", zap.Int64("modified", modified))
	case "relink":
		var linked int
		linked, err = relations.Rebuild(ctx)
		log.Info("Relink complete", zap.Int("linked", linked))
	case "indexes":
		err = runIndexes(ctx, repo, log)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Command failed", zap.String("command", command), zap.Error(err))
	}
}

func runImport(ctx context.Context, repo repository.ProductRepo, relations *services.RelationMaintainer, log *zap.Logger, path string, replace, relink bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	products, skipped, err := parseImportFile(f)
	if err != nil {
		return err
	}
	log.Info("Products read", zap.Int("valid", len(products)), zap.Int("skipped", skipped))

	if replace {
		deleted, err := repo.DeleteAll(ctx)
		if err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		log.Info("Cleared existing products", zap.Int64("deleted", deleted))
	}

	inserted, err := repo.CreateMany(ctx, products)
	if err != nil {
		return err
	}
	log.Info("Import complete", zap.Int("inserted", inserted))

	if relink {
		linked, err := relations.Rebuild(ctx)
		if err != nil {
			return err
		}
		log.Info("Relink complete", zap.Int("linked", linked))
	}
	return nil
}

func runIndexes(ctx context.Context, repo repository.ProductRepo, log *zap.Logger) error {
	dropped, err := repo.DropInvalidIndexes(ctx)
	if err != nil {
		return err
	}
	for _, name := range dropped {
		log.Info("Dropped index", zap.String("index", name))
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		return err
	}
	log.Info("Indexes ensured")
	return nil
}

// parseImportFile decodes a JSON array of products. Entries without a name, category
// or image URL are skipped and counted.
func parseImportFile(r io.Reader) ([]*models.Product, int, error) {
	var records []importRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, 0, fmt.Errorf("decode import file: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, errors.New("import file holds no products")
	}

	products := make([]*models.Product, 0, len(records))
	skipped := 0
	for _, rec := range records {
		name := strings.TrimSpace(rec.Name)
		category := strings.TrimSpace(rec.Category)
		imageURL := strings.TrimSpace(rec.ImageURL)
		if name == "" || category == "" || imageURL == "" {
			skipped++
			continue
		}
		products = append(products, &models.Product{
			Name:        name,
			Category:    category,
			ImageURL:    imageURL,
			Description: strings.TrimSpace(rec.Description),
			Brand:       strings.TrimSpace(rec.Brand),
			Tags:        rec.Tags,
			Colors:      rec.Colors,
		})
	}
	return products, skipped, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
