package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/weblog/internal/config"
	"github.com/weblog/internal/db"
	"github.com/weblog/internal/logger"
	"github.com/weblog/internal/service"
)

var update = flag.Bool("update", false, "Overwrite blogmarks that were imported before.")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-update] <feed url or path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	// 初始化数据库
	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	importer := service.NewFeedImporter(service.NewContentService(db.DB))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	feed, err := importer.Fetch(ctx, flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to load feed: %v", err)
	}

	report, err := importer.Import(feed, *update, func(outcome service.UpsertOutcome, blogmark *db.Blogmark) {
		if blogmark == nil {
			return
		}
		fmt.Printf("%-8s %s\n", outcome, blogmark.LinkURL)
	})
	if err != nil {
		log.Fatalf("import stopped: %v", err)
	}

	fmt.Printf("created %d, updated %d, skipped %d\n", report.Created, report.Updated, report.Skipped)
}
