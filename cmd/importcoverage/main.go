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

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <coverage json url or path>\n", os.Args[0])
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

	speaking := service.NewSpeakingService(db.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	data, err := speaking.LoadCoverage(ctx, flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to load coverage: %v", err)
	}

	report, err := speaking.ImportCoverage(data, func(line string) {
		fmt.Println(line)
	})
	if err != nil {
		log.Fatalf("import stopped: %v", err)
	}

	fmt.Printf("created %d, existing %d, errored %d\n", len(report.Created), report.Existing, report.Errored)
}
