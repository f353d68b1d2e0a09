// Command main populates the remote backend with demo blog content.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"quill/internal/config"
	"quill/internal/seed"
	"quill/internal/supabase"
)

func main() {
	fixturePath := flag.String("fixture", "", "YAML fixture to apply (generates random data when empty)")
	numUsers := flag.Int("users", 5, "Number of users to generate")
	numPosts := flag.Int("posts", 20, "Number of posts to generate")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall seeding timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var fixture *seed.Fixture
	if *fixturePath != "" {
		fixture, err = seed.LoadFixture(*fixturePath)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		log.Printf("Applying fixture %s (%d users)", *fixturePath, len(fixture.Users))
	} else {
		fixture = seed.Generate(*numUsers, *numPosts)
		log.Printf("Generated fixture: %d users, %d posts", *numUsers, *numPosts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backend := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	log.Printf("Seeding backend at %s", backend.BaseURL())
	if err := seed.NewSeeder(backend).Run(ctx, fixture); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete. Generated accounts use the password: password123")
}
