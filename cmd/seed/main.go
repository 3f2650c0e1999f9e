package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"campus-chatbot-be/internal/config"
	"campus-chatbot-be/internal/model"
	"campus-chatbot-be/internal/repository/implementation"
	"campus-chatbot-be/pkg/chat/search"
	"campus-chatbot-be/pkg/database"
	"campus-chatbot-be/pkg/embedding"
	"campus-chatbot-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// seedDocument is one knowledge-base document on disk.
type seedDocument struct {
	Partition   string `json:"partition"`
	Title       string `json:"title"`
	ArticleLink string `json:"article_link"`
	Content     string `json:"content"`
}

// Seeds the passage store from two on-disk formats: *.json files holding
// arrays of documents, and *_chunks.txt files of pre-chunked passages
// separated by "---" lines, with the partition derived from the file name
// (faqs_chunks.txt -> faqs, instructions_cengage_chunks.txt ->
// instructions:cengage). Re-running with -reset replaces seeded partitions.
func main() {
	dataDir := flag.String("data", "./data", "directory of seed files (*.json, *_chunks.txt)")
	reset := flag.Bool("reset", false, "delete each partition before seeding it")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embedder = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	} else {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	}

	passageRepo := implementation.NewPassageRepository(db)
	linkRepo := implementation.NewDocumentLinkRepository(db)
	ctx := context.Background()

	jsonFiles, _ := filepath.Glob(filepath.Join(*dataDir, "*.json"))
	chunkFiles, _ := filepath.Glob(filepath.Join(*dataDir, "*_chunks.txt"))
	files := append(jsonFiles, chunkFiles...)
	if len(files) == 0 {
		log.Fatalf("Error: no seed files found in %s", *dataDir)
	}

	resetDone := map[string]bool{}
	totalPassages := 0

	for _, file := range files {
		color.Cyan("Seeding from %s", file)

		raw, err := os.ReadFile(file)
		if err != nil {
			color.Red("  Failed to read %s: %v", file, err)
			continue
		}

		var docs []seedDocument
		if filepath.Ext(file) == ".txt" {
			docs = parseChunkFile(file, string(raw))
		} else if err := json.Unmarshal(raw, &docs); err != nil {
			color.Red("  Failed to parse %s: %v", file, err)
			continue
		}

		for _, doc := range docs {
			if *reset && !resetDone[doc.Partition] {
				if err := passageRepo.DeleteByPartition(ctx, doc.Partition); err != nil {
					color.Red("  Failed to reset partition %s: %v", doc.Partition, err)
					os.Exit(1)
				}
				resetDone[doc.Partition] = true
				color.Yellow("  Reset partition %s", doc.Partition)
			}

			base, err := passageRepo.CountByPartition(ctx, doc.Partition)
			if err != nil {
				color.Red("  Failed to count partition %s: %v", doc.Partition, err)
				os.Exit(1)
			}

			chunks := utils.SplitText(doc.Content, 1500, 200)
			meta, _ := json.Marshal(map[string]string{"title": doc.Title})

			var passages []*model.Passage
			for i, chunk := range chunks {
				res, err := embedder.Generate(chunk, embedding.TaskRetrievalDocument)
				if err != nil {
					color.Red("  Failed to embed chunk %d of %q: %v", i, doc.Title, err)
					os.Exit(1)
				}
				passages = append(passages, &model.Passage{
					Id:        uuid.New(),
					Partition: doc.Partition,
					Content:   chunk,
					Embedding: pgvector.NewVector(res.Embedding.Values),
					Position:  int(base) + i,
					Metadata:  datatypes.JSON(meta),
				})
			}

			if err := passageRepo.CreateBulk(ctx, passages); err != nil {
				color.Red("  Failed to store passages for %q: %v", doc.Title, err)
				os.Exit(1)
			}

			if doc.ArticleLink != "" {
				for _, p := range passages {
					link := &model.DocumentLink{
						SourceId: search.SourceID(p.Partition, p.Position),
						Url:      doc.ArticleLink,
						Title:    doc.Title,
					}
					if err := linkRepo.Upsert(ctx, link); err != nil {
						color.Red("  Failed to upsert link %s: %v", link.SourceId, err)
						os.Exit(1)
					}
				}
			}

			totalPassages += len(passages)
			color.Green("  %s -> %s (%d passages)", doc.Title, doc.Partition, len(passages))
		}
	}

	color.Green("✅ Seeding complete: %d passages", totalPassages)
}

// parseChunkFile turns a pre-chunked text file into one document per
// chunk. Chunks are separated by lines of dashes.
func parseChunkFile(path, raw string) []seedDocument {
	partition := partitionFromFilename(path)

	var docs []seedDocument
	for _, chunk := range strings.Split(raw, "\n---\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		docs = append(docs, seedDocument{Partition: partition, Content: chunk})
	}
	return docs
}

func partitionFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.TrimSuffix(stem, "_chunks")
	if rest, ok := strings.CutPrefix(stem, "instructions_"); ok {
		return "instructions:" + rest
	}
	return stem
}
