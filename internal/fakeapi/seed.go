package fakeapi

import (
	"fmt"
	"time"

	"vibeclient/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// SeedOptions control demo data generation.
type SeedOptions struct {
	Users   int
	Posts   int
	MaxDays int
	// Password is shared by every seeded account.
	Password string
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
}

// Seed fills the server with fake users and posts for local development.
// It returns the created users.
func (s *Server) Seed(opts SeedOptions) ([]models.User, error) {
	if opts.Users <= 0 {
		opts.Users = 3
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.Password == "" {
		opts.Password = "password123"
	}
	faker := gofakeit.New(opts.Seed)

	users := make([]models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		first, last := faker.FirstName(), faker.LastName()
		u, err := s.CreateUser(models.RegisterRequest{
			Username: fmt.Sprintf("%s%d", faker.Username(), i),
			Email:    fmt.Sprintf("user%d@%s", i, faker.DomainName()),
			Password: opts.Password,
			FullName: first + " " + last,
		})
		if err != nil {
			return nil, fmt.Errorf("seed user %d: %w", i, err)
		}
		users = append(users, u)
	}

	for i := 0; i < opts.Posts; i++ {
		author := users[faker.Number(0, len(users)-1)]
		post, err := s.CreatePostFor(author.ID, faker.Sentence(faker.Number(4, 16)), "")
		if err != nil {
			return nil, fmt.Errorf("seed post %d: %w", i, err)
		}

		back := time.Duration(faker.Number(0, opts.MaxDays*24*60)) * time.Minute
		s.mu.Lock()
		s.postIdx[post.ID].post.CreatedAt = s.now().Add(-back).UTC()
		s.mu.Unlock()
	}

	return users, nil
}
