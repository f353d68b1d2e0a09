// Package seed populates the remote backend with demo accounts and content.
// It drives the same client surface as the server: accounts through the auth
// endpoint, rows through the REST endpoint, each write authenticated as the
// owning user.
package seed

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/supabase"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML shape of a seed dataset.
type Fixture struct {
	Users []UserFixture `yaml:"users"`
}

// UserFixture is one demo account and its content.
type UserFixture struct {
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Name     string        `yaml:"name"`
	Posts    []PostFixture `yaml:"posts"`
}

// PostFixture is one demo post. Comment authors are referenced by email and
// must appear in the fixture's user list.
type PostFixture struct {
	Title    string           `yaml:"title"`
	Content  string           `yaml:"content"`
	Comments []CommentFixture `yaml:"comments"`
}

// CommentFixture is one demo comment.
type CommentFixture struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// LoadFixture reads a fixture from a YAML file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	if len(fixture.Users) == 0 {
		return nil, fmt.Errorf("fixture %s contains no users", path)
	}
	return &fixture, nil
}

// Seeder applies a fixture against the remote backend.
type Seeder struct {
	backend *supabase.Client
}

// NewSeeder creates a seeder over the given backend client.
func NewSeeder(backend *supabase.Client) *Seeder {
	return &Seeder{backend: backend}
}

// Run applies the fixture: accounts first, then posts, then comments. Every
// row is written through a client derived with the author's session, so
// ownership comes out the same as through the web flow. Accounts that already
// exist are reused.
func (s *Seeder) Run(ctx context.Context, fixture *Fixture) error {
	// One session-scoped client per fixture account, keyed by email.
	sessions := map[string]*supabase.Client{}

	for _, user := range fixture.Users {
		client, err := s.signIn(ctx, user)
		if err != nil {
			return fmt.Errorf("preparing account %s: %w", user.Email, err)
		}
		sessions[user.Email] = client
	}

	// postIDs maps "author email / post title" to the created row id.
	postIDs := map[string]string{}

	for _, user := range fixture.Users {
		client := sessions[user.Email]
		userID, err := userID(ctx, client)
		if err != nil {
			return err
		}
		posts := repository.NewPostRepository(client)

		for _, p := range user.Posts {
			post := &models.Post{Title: p.Title, Content: p.Content, UserID: userID}
			if err := posts.Create(ctx, post); err != nil {
				return fmt.Errorf("creating post %q: %w", p.Title, err)
			}
			postIDs[user.Email+"/"+p.Title] = post.ID
			log.Printf("created post %q as %s", p.Title, user.Email)
		}
	}

	for _, user := range fixture.Users {
		for _, p := range user.Posts {
			postID := postIDs[user.Email+"/"+p.Title]
			for _, cm := range p.Comments {
				client, ok := sessions[cm.Author]
				if !ok {
					return fmt.Errorf("comment author %s is not in the fixture", cm.Author)
				}
				authorID, err := userID(ctx, client)
				if err != nil {
					return err
				}

				comment := &models.Comment{
					PostID:  postID,
					UserID:  authorID,
					Content: cm.Content,
				}
				if err := repository.NewCommentRepository(client).Create(ctx, comment); err != nil {
					return fmt.Errorf("commenting on %q: %w", p.Title, err)
				}
			}
		}
	}

	return nil
}

// signIn ensures the account exists and returns a client authenticated as it.
func (s *Seeder) signIn(ctx context.Context, user UserFixture) (*supabase.Client, error) {
	if err := s.backend.SignUp(ctx, user.Email, user.Password, user.Name); err != nil {
		// An already-registered account is fine; anything else is not.
		if !strings.Contains(err.Error(), "already registered") {
			return nil, err
		}
	}

	pair, err := s.backend.SignInWithPassword(ctx, user.Email, user.Password)
	if err != nil {
		return nil, fmt.Errorf("signing in (is email confirmation disabled for this project?): %w", err)
	}
	return s.backend.WithSession(pair), nil
}

// userID resolves the account id behind a session-scoped client.
func userID(ctx context.Context, client *supabase.Client) (string, error) {
	user, err := client.GetUser(ctx, client.Session().AccessToken)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
