// Command tokengen mints a caller token for the trip API, signed with
// JWT_SECRET from the environment or .env.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nekogravitycat/trip-orchestrator/internal/auth"
	"github.com/nekogravitycat/trip-orchestrator/internal/config"
)

func main() {
	caller := flag.String("caller", "dev", "caller id placed in the sub claim")
	name := flag.String("name", "", "display name of the caller")
	scopes := flag.String("scopes", auth.ScopePlan+","+auth.ScopeBook, "comma separated scopes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var granted []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			granted = append(granted, s)
		}
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL).GenerateAccessToken(*caller, *name, granted...)
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
