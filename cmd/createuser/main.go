package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/weblog/internal/config"
	"github.com/weblog/internal/db"
)

func main() {
	username := flag.String("username", "admin", "Login name of the new user.")
	password := flag.String("password", "", "Password of the new user.")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(2)
	}

	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	// 检查是否已存在用户
	var count int64
	db.DB.Model(&db.User{}).Where("username = ?", *username).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，无需创建")
		return
	}

	if err := db.EnsureUser(db.DB, *username, *password); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Println("管理员用户创建成功")
	fmt.Println("用户名:", *username)
}
