package seed

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

const generatedPassword = "password123"

// Generate fabricates a fixture with the given number of users and posts.
// Posts are spread round-robin over the users and every post gets a couple of
// comments from other users. All accounts share one well-known password.
func Generate(numUsers, numPosts int) *Fixture {
	if numUsers < 1 {
		numUsers = 1
	}

	fixture := &Fixture{Users: make([]UserFixture, numUsers)}
	for i := range fixture.Users {
		name := gofakeit.Name()
		fixture.Users[i] = UserFixture{
			Email:    fmt.Sprintf("%s%d@example.com", slug(name), i),
			Password: generatedPassword,
			Name:     name,
		}
	}

	for i := 0; i < numPosts; i++ {
		author := &fixture.Users[i%numUsers]
		post := PostFixture{
			Title:   strings.TrimSuffix(gofakeit.Sentence(5), "."),
			Content: gofakeit.Paragraph(2, 4, 10, "\n\n"),
		}

		if numUsers > 1 {
			for c := 0; c < 2; c++ {
				commenter := fixture.Users[(i+c+1)%numUsers]
				post.Comments = append(post.Comments, CommentFixture{
					Author:  commenter.Email,
					Content: gofakeit.Sentence(8),
				})
			}
		}

		author.Posts = append(author.Posts, post)
	}

	return fixture
}

func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "."))
}
