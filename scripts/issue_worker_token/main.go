// Command issue_worker_token signs an access token for an external
// processing worker. Workers are provisioned out of band; operators run
// this against the same WORKER_JWT_SECRET the gateway loads.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/doc-intake-api/internal/middleware"
	"github.com/noah-isme/doc-intake-api/pkg/config"
)

func main() {
	var (
		workerID string
		secret   string
		ttl      time.Duration
	)

	flag.StringVar(&workerID, "worker-id", "", "Worker identifier embedded in the token")
	flag.StringVar(&secret, "secret", "", "Signing secret; defaults to WORKER_JWT_SECRET from the environment")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime; defaults to WORKER_TOKEN_TTL from the environment")
	flag.Parse()

	if workerID == "" {
		flag.Usage()
		os.Exit(2)
	}

	if secret == "" || ttl <= 0 {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		if secret == "" {
			secret = cfg.Worker.JWTSecret
		}
		if ttl <= 0 {
			ttl = cfg.Worker.TokenTTL
		}
	}

	token, err := middleware.IssueWorkerToken(workerID, secret, ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
