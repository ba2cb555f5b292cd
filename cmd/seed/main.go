// Command main fills the configured database with demo users and posts.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"unnest/internal/config"
	"unnest/internal/database"
	"unnest/internal/middleware"
	"unnest/internal/repository"
	"unnest/internal/seed"
	"unnest/internal/service"
	"unnest/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 5, "Number of users to generate")
	numPosts := flag.Int("posts", 25, "Number of posts to generate")
	fixtures := flag.String("fixtures", "", "YAML fixtures file; replaces random generation")
	password := flag.String("password", seed.DefaultPassword, "Password for generated users")
	fakerSeed := flag.Int64("seed", 0, "Faker seed (0 picks one from the clock)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(os.Stdout, cfg.Env)

	ctx := context.Background()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	media := service.NewMediaService(store)

	s := seed.NewSeeder(
		service.NewAuthService(userRepo, cfg.BcryptCost),
		service.NewUserService(userRepo, media),
		service.NewPostService(postRepo, userRepo, media, cfg.PostsPerPage),
		seed.NewFactory(*fakerSeed),
	)

	var res seed.Result
	if *fixtures != "" {
		log.Printf("Seeding from %s", *fixtures)
		f, err := seed.LoadFixturesFile(*fixtures)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		res, err = s.ApplyFixtures(ctx, f)
		if err != nil {
			log.Fatalf("Fixture seeding failed after %d users, %d posts: %v", res.Users, res.Posts, err)
		}
	} else {
		log.Printf("Generating %d users, %d posts", *numUsers, *numPosts)
		res, err = s.Generate(ctx, seed.Options{NumUsers: *numUsers, NumPosts: *numPosts, Password: *password})
		if err != nil {
			log.Fatalf("Seeding failed after %d users, %d posts: %v", res.Users, res.Posts, err)
		}
	}

	log.Printf("Done: %d users, %d posts", res.Users, res.Posts)
}
