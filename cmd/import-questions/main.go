// Command import-questions loads SAT questions into the bank_questions table
// from an .xlsx workbook or a JSON file.
//
//	import-questions -file bank.xlsx
//	import-questions -file bank.json -dry-run
//	import-questions -template bank-template.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/satprep-api/internal/config"
	"github.com/yourusername/satprep-api/internal/domain/entity"
	memoryRepo "github.com/yourusername/satprep-api/internal/repository/memory"
	pgRepo "github.com/yourusername/satprep-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/satprep-api/internal/repository/redis"
	"github.com/yourusername/satprep-api/internal/service"
	"github.com/yourusername/satprep-api/pkg/database"
)

func main() {
	file := flag.String("file", "", "question bank to import (.xlsx or .json)")
	template := flag.String("template", "", "write an empty .xlsx template to this path and exit")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing to the database")
	flag.Parse()

	if *template != "" {
		if err := writeTemplateFile(*template); err != nil {
			log.Fatalf("Failed to write template: %v", err)
		}
		log.Printf("Template written to %s", *template)
		return
	}
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	questions, err := loadQuestions(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	log.Printf("Read %d questions from %s", len(questions), *file)

	ctx := context.Background()

	if *dryRun {
		// validation only, against a throwaway bank
		pool := service.NewQuestionPoolService(memoryRepo.NewQuestionRepo(nil), nil, 0)
		if _, err := pool.Import(ctx, questions); err != nil {
			log.Fatalf("Validation failed: %v", err)
		}
		log.Println("Dry run: all questions are valid")
		return
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Fatalf("Import needs the postgres storage driver, got %q", cfg.Storage.Driver)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	pool := service.NewQuestionPoolService(pgRepo.NewQuestionRepo(db), nil, cfg.Game.PoolCacheTTL)
	if cfg.Redis.Enabled() {
		// cached pools must be dropped so running servers see the new questions
		redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, cached pools expire on their own: %v", err)
		} else {
			defer redisClient.Close()
			cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
			if err != nil {
				log.Fatalf("Failed to initialize CacheRepo: %v", err)
			}
			pool = service.NewQuestionPoolService(pgRepo.NewQuestionRepo(db), cacheRepo, cfg.Game.PoolCacheTTL)
		}
	}

	n, err := pool.Import(ctx, questions)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Imported %d questions", n)
}

func loadQuestions(path string) ([]entity.BankQuestion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeQuestions(filepath.Ext(path), f)
}

func decodeQuestions(ext string, r io.Reader) ([]entity.BankQuestion, error) {
	switch strings.ToLower(ext) {
	case ".xlsx":
		return readSheet(r)
	case ".json":
		questions, err := memoryRepo.DecodeQuestionsJSON(r)
		if err != nil {
			return nil, err
		}
		for i := range questions {
			questions[i].Category = strings.ToLower(strings.TrimSpace(questions[i].Category))
		}
		return questions, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q, expected .xlsx or .json", ext)
	}
}

func writeTemplateFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeTemplate(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
