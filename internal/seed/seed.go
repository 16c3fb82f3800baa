// Package seed fills a store with generated users, communities and threads
// for development and demos. All writes go through the service layer so the
// generated data keeps every reference list consistent.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"threads/internal/database"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/repository"
	"threads/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Users       int `yaml:"users"`
	Communities int `yaml:"communities"`
	Threads     int `yaml:"threads"`
	// MaxReplies bounds the comments added under each top-level thread.
	MaxReplies int `yaml:"max_replies"`
	// MemberPercent is the chance, 0-100, that a user joins each community.
	MemberPercent int   `yaml:"member_percent"`
	Clean         bool  `yaml:"clean"`
	Seed          int64 `yaml:"seed"`
}

// Validate rejects option sets the seeder cannot satisfy.
func (o Options) Validate() error {
	if o.Users < 0 || o.Communities < 0 || o.Threads < 0 || o.MaxReplies < 0 {
		return fmt.Errorf("seed counts must not be negative")
	}
	if o.MemberPercent < 0 || o.MemberPercent > 100 {
		return fmt.Errorf("member_percent must be between 0 and 100")
	}
	if o.Users == 0 && (o.Threads > 0 || o.Communities > 0) {
		return fmt.Errorf("threads and communities need at least one user")
	}
	return nil
}

// Result counts what a run created.
type Result struct {
	Users       int
	Communities int
	Threads     int
	Comments    int
	Memberships int
}

// Seeder writes generated data through the services.
type Seeder struct {
	store       repository.Store
	users       *service.UserService
	threads     *service.ThreadService
	communities *service.CommunityService
}

// NewSeeder returns a Seeder that writes to store without publishing
// revalidation events.
func NewSeeder(store repository.Store) *Seeder {
	return &Seeder{
		store:       store,
		users:       service.NewUserService(store, nil),
		threads:     service.NewThreadService(store, nil, nil),
		communities: service.NewCommunityService(store, nil),
	}
}

// Run generates data according to opts. The same Seed yields the same names
// and texts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Clean {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
	}

	faker := gofakeit.New(opts.Seed)
	result := &Result{}

	users, err := s.seedUsers(ctx, faker, opts.Users)
	if err != nil {
		return result, err
	}
	result.Users = len(users)

	communities, memberships, err := s.seedCommunities(ctx, faker, users, opts)
	if err != nil {
		return result, err
	}
	result.Communities = len(communities)
	result.Memberships = memberships

	for i := 0; i < opts.Threads; i++ {
		author := users[faker.Number(0, len(users)-1)]
		in := service.CreateThreadInput{
			Text:     faker.Sentence(faker.Number(6, 20)),
			AuthorID: author.ID,
		}
		if len(communities) > 0 && faker.Number(0, 2) == 0 {
			in.CommunityID = communities[faker.Number(0, len(communities)-1)].ExternalID
		}
		root, err := s.threads.CreateThread(ctx, in)
		if err != nil {
			return result, fmt.Errorf("create thread %d: %w", i, err)
		}
		result.Threads++

		n, err := s.seedReplies(ctx, faker, users, root.ID, opts.MaxReplies)
		result.Comments += n
		if err != nil {
			return result, err
		}
	}

	middleware.Logger.InfoContext(ctx, "Seeding complete",
		slog.Int("users", result.Users),
		slog.Int("communities", result.Communities),
		slog.Int("threads", result.Threads),
		slog.Int("comments", result.Comments),
	)
	return result, nil
}

func (s *Seeder) seedUsers(ctx context.Context, faker *gofakeit.Faker, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		first, last := faker.FirstName(), faker.LastName()
		user, err := s.users.UpdateUser(ctx, service.UpdateUserInput{
			ExternalID: fmt.Sprintf("seed_user_%04d", i),
			Username:   handle(first+last, i),
			Name:       first + " " + last,
			Bio:        faker.Sentence(faker.Number(5, 15)),
			Image:      fmt.Sprintf("https://picsum.photos/seed/%s/200/200", faker.UUID()),
		})
		if err != nil {
			return users, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedCommunities(ctx context.Context, faker *gofakeit.Faker, users []*models.User, opts Options) ([]*models.Community, int, error) {
	communities := make([]*models.Community, 0, opts.Communities)
	memberships := 0
	for i := 0; i < opts.Communities; i++ {
		creator := users[faker.Number(0, len(users)-1)]
		name := faker.Company()
		community, err := s.communities.CreateCommunity(ctx, service.CreateCommunityInput{
			ExternalID: fmt.Sprintf("seed_org_%04d", i),
			Name:       name,
			Username:   handle(name, i),
			Image:      fmt.Sprintf("https://picsum.photos/seed/%s/200/200", faker.UUID()),
			Bio:        faker.Sentence(faker.Number(5, 15)),
			CreatedBy:  creator.ExternalID,
		})
		if err != nil {
			return communities, memberships, fmt.Errorf("create community %d: %w", i, err)
		}
		communities = append(communities, community)

		for _, user := range users {
			if user.ID == creator.ID || faker.Number(1, 100) > opts.MemberPercent {
				continue
			}
			if _, err := s.communities.AddMemberToCommunity(ctx, community.ExternalID, user.ExternalID); err != nil {
				return communities, memberships, fmt.Errorf("add member to community %d: %w", i, err)
			}
			memberships++
		}
	}
	return communities, memberships, nil
}

// seedReplies adds up to max comments under rootID. Each comment answers a
// random earlier node of the same tree so nesting goes several levels deep.
func (s *Seeder) seedReplies(ctx context.Context, faker *gofakeit.Faker, users []*models.User, rootID string, max int) (int, error) {
	if max == 0 {
		return 0, nil
	}
	tree := []string{rootID}
	count := faker.Number(0, max)
	for i := 0; i < count; i++ {
		comment, err := s.threads.AddCommentToThread(ctx, service.AddCommentInput{
			ThreadID: tree[faker.Number(0, len(tree)-1)],
			Text:     faker.Sentence(faker.Number(3, 12)),
			AuthorID: users[faker.Number(0, len(users)-1)].ID,
		})
		if err != nil {
			return i, fmt.Errorf("add comment under %s: %w", rootID, err)
		}
		tree = append(tree, comment.ID)
	}
	return count, nil
}

// Clear removes every thread, user and community from the store.
func (s *Seeder) Clear(ctx context.Context) error {
	if err := s.store.EnsureConnected(ctx); err != nil {
		return err
	}
	if !s.store.Connected() {
		return models.NewConnectionUnavailableError()
	}

	switch st := s.store.(type) {
	case interface{ Drop(context.Context) error }:
		return st.Drop(ctx)
	case interface{ DB() *gorm.DB }:
		db := st.DB().WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range database.PersistentModels() {
			if err := db.Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("store %T cannot be cleared", s.store)
	}
}

var nonHandleChars = regexp.MustCompile(`[^a-z0-9]+`)

// handle derives a valid, unique username from a display name.
func handle(name string, n int) string {
	base := nonHandleChars.ReplaceAllString(strings.ToLower(name), "")
	if base == "" {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	return fmt.Sprintf("%s_%d", base, n)
}
