// Command admin manages groups and the page cache.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/joho/godotenv"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin create-group <slug> <title> [description]  - Create a group")
	fmt.Println("  admin import-groups <file.yml>                   - Create or update groups from YAML")
	fmt.Println("  admin delete-group <slug>                        - Delete a group; its posts keep no group")
	fmt.Println("  admin list-groups                                - List all groups")
	fmt.Println("  admin clear-cache                                - Drop every cached page in Redis")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()

	command, args := os.Args[1], os.Args[2:]
	if command == "clear-cache" {
		clearCache(ctx, cfg)
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()
	groups := service.NewGroupService(repository.NewGroupRepository(db))

	switch command {
	case "create-group":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		group, err := groups.CreateGroup(ctx, args[1], args[0], description)
		if err != nil {
			log.Fatalf("Create failed: %v", err)
		}
		fmt.Printf("Created group %q (/group/%s/)\n", group.String(), group.Slug)

	case "import-groups":
		if len(args) < 1 {
			usage()
			os.Exit(1)
		}
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("Open %s: %v", args[0], err)
		}
		defer f.Close()
		imported, err := groups.ImportGroups(ctx, f)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		for _, g := range imported {
			fmt.Printf("  %-30s %s\n", g.Slug, g.String())
		}
		fmt.Printf("Imported %d groups\n", len(imported))

	case "delete-group":
		if len(args) < 1 {
			usage()
			os.Exit(1)
		}
		if err := groups.DeleteGroup(ctx, args[0]); err != nil {
			log.Fatalf("Delete failed: %v", err)
		}
		fmt.Printf("Deleted group %s\n", args[0])

	case "list-groups":
		list, err := groups.ListGroups(ctx)
		if err != nil {
			log.Fatalf("List failed: %v", err)
		}
		for _, g := range list {
			fmt.Printf("  %-30s %s\n", g.Slug, g.String())
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func clearCache(ctx context.Context, cfg *config.Config) {
	if cfg.RedisURL == "" {
		fmt.Println("REDIS_URL is empty; the in-memory page cache lives inside the server process")
		return
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := cache.NewRedisPageCache(client).Clear(ctx); err != nil {
		log.Fatalf("Cache clear failed: %v", err)
	}
	fmt.Println("Page cache cleared")
}
