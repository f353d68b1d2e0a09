package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quill/internal/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededRow is one REST insert the fake backend saw, with the bearer token
// it was written under.
type seededRow struct {
	table string
	token string
	row   map[string]any
}

// fakeBackend serves just enough of the auth and REST surface for Run:
// accounts get "at-<email>" tokens and "id-<email>" ids, inserts are
// recorded with their Authorization header.
func fakeBackend(t *testing.T) (*httptest.Server, *[]seededRow) {
	t.Helper()
	var writes []seededRow
	var nextID int

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "at-" + creds["email"],
			"refresh_token": "rt-" + creds["email"],
		})
	})
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		email := strings.TrimPrefix(token, "at-")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "id-" + email, "email": email,
		})
	})
	mux.HandleFunc("/rest/v1/", func(w http.ResponseWriter, r *http.Request) {
		table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		var row map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		writes = append(writes, seededRow{
			table: table,
			token: strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
			row:   row,
		})

		nextID++
		row["id"] = fmt.Sprintf("%s-%d", table, nextID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(row)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &writes
}

// Every seeded row must be written under its own author's session, never the
// anon key and never another account's token.
func TestSeederRunWritesAsEachAuthor(t *testing.T) {
	ts, writes := fakeBackend(t)

	fixture := &Fixture{Users: []UserFixture{
		{
			Email: "alice@example.com", Password: "password123", Name: "Alice",
			Posts: []PostFixture{{
				Title: "Hello", Content: "World",
				Comments: []CommentFixture{{Author: "bob@example.com", Content: "Nice one"}},
			}},
		},
		{Email: "bob@example.com", Password: "password123", Name: "Bob"},
	}}

	backend := supabase.New(ts.URL, "anon-key")
	require.NoError(t, NewSeeder(backend).Run(context.Background(), fixture))
	require.Len(t, *writes, 2)

	post := (*writes)[0]
	assert.Equal(t, "posts", post.table)
	assert.Equal(t, "at-alice@example.com", post.token)
	assert.Equal(t, "id-alice@example.com", post.row["user_id"])

	comment := (*writes)[1]
	assert.Equal(t, "comments", comment.table)
	assert.Equal(t, "at-bob@example.com", comment.token)
	assert.Equal(t, "id-bob@example.com", comment.row["user_id"])
	assert.Equal(t, "posts-1", comment.row["post_id"])

	// Seeding never taints the shared base client with a session.
	assert.Nil(t, backend.Session())
}

func TestSeederRunRejectsUnknownCommentAuthor(t *testing.T) {
	ts, _ := fakeBackend(t)

	fixture := &Fixture{Users: []UserFixture{{
		Email: "alice@example.com", Password: "password123", Name: "Alice",
		Posts: []PostFixture{{
			Title: "Hello", Content: "World",
			Comments: []CommentFixture{{Author: "ghost@example.com", Content: "boo"}},
		}},
	}}}

	err := NewSeeder(supabase.New(ts.URL, "anon-key")).Run(context.Background(), fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost@example.com")
}
