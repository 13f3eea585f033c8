package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"PatternScope/internal/config"
	"PatternScope/internal/symbols"
	"PatternScope/internal/trader"
)

func main() {
	out := flag.String("out", symbols.DefaultFile, "catalogue output file")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sess, err := cfg.OpenSession(ctx)
	if err != nil {
		log.Fatalf("[FATAL] open terminal session: %v", err)
	}
	cat, err := symbols.Fetch(ctx, sess)
	if cerr := sess.Close(context.Background()); cerr != nil {
		log.Printf("[WARN] close terminal session: %v", cerr)
	}
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if err := symbols.Save(*out, cat); err != nil {
		log.Fatalf("[FATAL] save catalogue: %v", err)
	}
	fmt.Printf("Symbols information saved to %s (%d symbols)\n", *out, len(cat))
	fmt.Printf("Possible trade actions: %s\n", strings.Join(trader.Actions(), ", "))
}
