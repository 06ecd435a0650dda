package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/relicvault/storefront/internal/authz"
	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/models"
)

// 初始化客户端存储表与内置角色策略，可追加授予自定义角色策略
func main() {
	var grant string
	flag.StringVar(&grant, "grant", "", "追加策略，格式 role|object|action，多个以逗号分隔，例如 curator|/admin/products/:id|PUT")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(models.DB); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}

	for _, item := range strings.Split(grant, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "|", 3)
		if len(parts) != 3 {
			stdLog.Fatalf("Invalid grant %q, want role|object|action", item)
		}
		if err := authzService.GrantRolePolicy(parts[0], parts[1], parts[2]); err != nil {
			stdLog.Fatalf("Failed to grant %q: %v", item, err)
		}
	}

	policies, err := authzService.ListPolicies()
	if err != nil {
		stdLog.Fatalf("Failed to list policies: %v", err)
	}
	for _, policy := range policies {
		fmt.Printf("%s\t%s\t%s\n", policy.Subject, policy.Object, policy.Action)
	}
	fmt.Println("Seed completed")
}
