// Package main provides a tool to seed the database with demo forum data.
//
// It creates a few users, then bulk-loads questions, answers and votes and
// rebuilds the search index so the feed has something to show.
//
// Usage:
//
//	DATA_PATH=~/askboard go run ./cmd/seed
//	DATA_PATH=~/askboard go run ./cmd/seed --questions 200
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/askboard/askboard-server/internal/auth"
	"github.com/askboard/askboard-server/internal/color"
	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/id"
	"github.com/askboard/askboard-server/internal/search"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/util"
)

var (
	questionCount = flag.Int("questions", 40, "Number of questions to create")
	maxAnswers    = flag.Int("max-answers", 4, "Maximum answers per question")
)

// seedPassword is shared by every demo account.
const seedPassword = "askboard-demo"

var demoUsers = []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Barbara Liskov"}

var topics = []string{
	"How do I structure server actions",
	"Why does my effect run twice",
	"Best way to paginate a feed",
	"Dark mode without a flash",
	"Refreshing tokens in the background",
	"Debouncing search input",
	"Optimistic updates for votes",
	"Deploying behind a reverse proxy",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/askboard")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	users := createUsers(ctx, s)
	fmt.Printf("Using %d users (password %q)\n", len(users), seedPassword)

	questions := seedQuestions(ctx, s, users)

	fixed, err := s.ReconcileVotes(ctx)
	if err != nil {
		log.Fatalf("Failed to reconcile votes: %v", err)
	}
	fmt.Printf("Vote counters set on %d records\n", fixed)

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(dataPath, "search")})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	all, err := s.FetchQuestions(ctx)
	if err != nil {
		log.Fatalf("Failed to read questions: %v", err)
	}
	if err := index.Reindex(ctx, all); err != nil {
		log.Fatalf("Failed to rebuild search index: %v", err)
	}

	fmt.Printf("\nDone! Seeded %d questions, index holds %d\n", questions, len(all))
}

func createUsers(ctx context.Context, s *store.Store) []*domain.User {
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	users := make([]*domain.User, 0, len(demoUsers))
	for i, name := range demoUsers {
		email := fmt.Sprintf("demo%d@askboard.local", i+1)

		if existing, err := s.GetUserByEmail(ctx, email); err == nil {
			users = append(users, existing)
			continue
		}

		u := &domain.User{
			Email:        email,
			PasswordHash: hash,
			DisplayName:  name,
		}
		u.ID = id.MustGenerate(id.PrefixUser)
		u.AvatarColor = color.ForUser(u.ID)
		u.InitTimestamps()

		if err := s.CreateUser(ctx, u); err != nil {
			log.Fatalf("Failed to create user %s: %v", email, err)
		}
		fmt.Printf("  Created user: %s\n", email)
		users = append(users, u)
	}
	return users
}

func seedQuestions(ctx context.Context, s *store.Store, users []*domain.User) int {
	batch := s.NewBatchWriter(500)
	defer batch.Cancel()

	tagCounts := make(map[string]int)
	tagNames := make(map[string]string)
	start := time.Now().Add(-time.Duration(*questionCount) * time.Hour)

	for n := range *questionCount {
		author := users[rand.IntN(len(users))]

		tags := pickTags()
		for _, name := range tags {
			slug := util.NormalizeTagSlug(name)
			tagCounts[slug]++
			if _, ok := tagNames[slug]; !ok {
				tagNames[slug] = name
			}
		}

		q := &domain.Question{
			Title:       fmt.Sprintf("%s? (#%d)", topics[n%len(topics)], n+1),
			Description: "Seeded question used for local development.",
			Tags:        util.NormalizeTags(tags),
			AuthorID:    author.ID,
			AuthorName:  author.Name(),
		}
		q.ID = id.MustGenerate(id.PrefixQuestion)
		q.CreatedAt = start.Add(time.Duration(n) * time.Hour)
		q.UpdatedAt = q.CreatedAt

		answers := rand.IntN(*maxAnswers + 1)
		for j := range answers {
			responder := users[rand.IntN(len(users))]
			a := &domain.Answer{
				QuestionID: q.ID,
				Text:       fmt.Sprintf("Seeded answer %d.", j+1),
				AuthorID:   responder.ID,
				AuthorName: responder.Name(),
			}
			a.ID = id.MustGenerate(id.PrefixAnswer)
			a.CreatedAt = q.CreatedAt.Add(time.Duration(j+1) * time.Minute)
			a.UpdatedAt = a.CreatedAt

			if err := batch.PutAnswer(ctx, a); err != nil {
				log.Fatalf("Failed to queue answer: %v", err)
			}
			putVotes(ctx, batch, users, domain.TargetAnswer, a.ID, a.CreatedAt)
		}
		q.AnswerCount = answers

		if err := batch.PutQuestion(ctx, q); err != nil {
			log.Fatalf("Failed to queue question: %v", err)
		}
		putVotes(ctx, batch, users, domain.TargetQuestion, q.ID, q.CreatedAt)
	}

	now := time.Now()
	for slug, count := range tagCounts {
		t := &domain.Tag{Slug: slug, Name: tagNames[slug], QuestionCount: count, CreatedAt: now, UpdatedAt: now}
		if err := batch.PutTag(ctx, t); err != nil {
			log.Fatalf("Failed to queue tag: %v", err)
		}
	}

	if err := batch.Flush(); err != nil {
		log.Fatalf("Failed to flush batch: %v", err)
	}
	return *questionCount
}

// putVotes adds a random subset of users as voters. Counters are fixed
// afterwards by ReconcileVotes.
func putVotes(ctx context.Context, batch *store.BatchWriter, users []*domain.User, target domain.VoteTarget, targetID string, after time.Time) {
	for _, u := range users {
		if rand.IntN(3) != 0 {
			continue
		}
		l := &domain.Like{Target: target, TargetID: targetID, UserID: u.ID, LikedAt: after.Add(time.Minute)}
		if err := batch.PutLike(ctx, l); err != nil {
			log.Fatalf("Failed to queue vote: %v", err)
		}
	}
}

func pickTags() []string {
	n := 1 + rand.IntN(3)
	perm := rand.Perm(len(domain.DefaultTags))
	tags := make([]string, 0, n)
	for _, i := range perm[:n] {
		tags = append(tags, domain.DefaultTags[i])
	}
	return tags
}
