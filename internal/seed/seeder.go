package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/reelgraph/internal/accounts"
	"github.com/zfogg/reelgraph/internal/container"
	"github.com/zfogg/reelgraph/internal/content"
	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/follow"
	"github.com/zfogg/reelgraph/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DevOptions sizes a development dataset
type DevOptions struct {
	Accounts        int
	PrivateRatio    float64
	PostsPerAccount int
	Follows         int
	Likes           int
	Comments        int
	// Seed fixes the generated data; 0 picks one from the clock
	Seed uint64
}

// DefaultDevOptions is a dataset big enough to page through every feed
func DefaultDevOptions() DevOptions {
	return DevOptions{
		Accounts:        60,
		PrivateRatio:    0.3,
		PostsPerAccount: 8,
		Follows:         400,
		Likes:           1500,
		Comments:        600,
	}
}

// Summary counts what a seeding run created
type Summary struct {
	Accounts int
	Content  int
	Follows  int
	Pending  int
	Likes    int
	Comments int
}

// Seeder fills the database through the core services, so every row it
// writes has passed the same checks as live traffic
type Seeder struct {
	db     *gorm.DB
	svc    *container.Services
	log    *zap.Logger
	fake   *gofakeit.Faker
	counts Summary
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, svc *container.Services, log *zap.Logger) *Seeder {
	return &Seeder{db: db, svc: svc, log: log, fake: gofakeit.New(uint64(time.Now().UnixNano()))}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context, opts DevOptions) (Summary, error) {
	if opts.Seed != 0 {
		s.fake = gofakeit.New(opts.Seed)
	}
	s.counts = Summary{}

	s.log.Info("creating accounts", zap.Int("count", opts.Accounts))
	users, err := s.seedAccounts(ctx, opts.Accounts, opts.PrivateRatio)
	if err != nil {
		return s.counts, fmt.Errorf("failed to seed accounts: %w", err)
	}

	s.log.Info("creating content")
	posts, err := s.seedContent(ctx, users, opts.PostsPerAccount)
	if err != nil {
		return s.counts, fmt.Errorf("failed to seed content: %w", err)
	}

	s.log.Info("creating follows", zap.Int("attempts", opts.Follows))
	if err := s.seedFollows(ctx, users, opts.Follows); err != nil {
		return s.counts, fmt.Errorf("failed to seed follows: %w", err)
	}

	s.log.Info("creating likes", zap.Int("attempts", opts.Likes))
	if err := s.seedLikes(ctx, users, posts, opts.Likes); err != nil {
		return s.counts, fmt.Errorf("failed to seed likes: %w", err)
	}

	s.log.Info("creating comments", zap.Int("attempts", opts.Comments))
	if err := s.seedComments(ctx, users, posts, opts.Comments); err != nil {
		return s.counts, fmt.Errorf("failed to seed comments: %w", err)
	}

	s.log.Info("seeding complete",
		zap.Int("accounts", s.counts.Accounts),
		zap.Int("content", s.counts.Content),
		zap.Int("follows", s.counts.Follows),
		zap.Int("pending", s.counts.Pending),
		zap.Int("likes", s.counts.Likes),
		zap.Int("comments", s.counts.Comments),
	)
	return s.counts, nil
}

// SeedTest creates a small fixed graph: alice and bob are public, carol
// and dave private. bob follows carol, dave has asked to follow carol.
func (s *Seeder) SeedTest(ctx context.Context) (map[string]*models.Account, error) {
	fixtures := []struct {
		handle     string
		name       string
		visibility models.Visibility
	}{
		{"alice", "Alice Smith", models.VisibilityPublic},
		{"bob", "Bob Johnson", models.VisibilityPublic},
		{"carol", "Carol Brown", models.VisibilityPrivate},
		{"dave", "Dave Wilson", models.VisibilityPrivate},
	}

	users := make(map[string]*models.Account, len(fixtures))
	for _, f := range fixtures {
		account, err := s.svc.Accounts.GetByHandle(ctx, f.handle)
		if apierrors.Is(err, apierrors.ErrNotFound) {
			account, err = s.svc.Accounts.Signup(ctx, accounts.SignupInput{
				Handle:      f.handle,
				DisplayName: f.name,
				Visibility:  f.visibility,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create test account %s: %w", f.handle, err)
		}
		users[f.handle] = account
	}

	for _, handle := range []string{"alice", "carol"} {
		for i, media := range []models.Media{models.Image{AltText: "test image"}, models.Reel{Duration: 12 * time.Second}} {
			_, err := s.svc.Content.Publish(ctx, users[handle].ID, content.Draft{
				Path:    fmt.Sprintf("test/%s/%d", handle, i),
				Caption: fmt.Sprintf("%s test post %d", handle, i),
				Media:   media,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to publish test content: %w", err)
			}
		}
	}

	if err := s.ensureFollow(ctx, users["bob"].ID, users["carol"].ID, true); err != nil {
		return nil, err
	}
	if err := s.ensureFollow(ctx, users["dave"].ID, users["carol"].ID, false); err != nil {
		return nil, err
	}
	return users, nil
}

// Clean removes every row, children first
func (s *Seeder) Clean(ctx context.Context) error {
	all := models.All()
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Delete(all[i]).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", all[i], err)
		}
	}
	return nil
}

func (s *Seeder) seedAccounts(ctx context.Context, count int, privateRatio float64) ([]*models.Account, error) {
	users := make([]*models.Account, 0, count)
	for len(users) < count {
		visibility := models.VisibilityPublic
		if s.fake.Float64() < privateRatio {
			visibility = models.VisibilityPrivate
		}

		account, err := s.svc.Accounts.Signup(ctx, accounts.SignupInput{
			Handle:      s.handle(),
			DisplayName: s.fake.Name(),
			Visibility:  visibility,
			AvatarPath:  fmt.Sprintf("avatars/%s.png", s.fake.UUID()),
			Website:     s.fake.URL(),
		})
		if apierrors.Is(err, apierrors.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, account)
		s.counts.Accounts++
	}
	return users, nil
}

// handle is a fake username reduced to the allowed alphabet
func (s *Seeder) handle() string {
	h := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			return r
		}
		return -1
	}, s.fake.Username())
	if h == "" {
		h = "user"
	}
	if len(h) > 26 {
		h = h[:26]
	}
	return fmt.Sprintf("%s%d", h, s.fake.IntRange(0, 999))
}

func (s *Seeder) seedContent(ctx context.Context, users []*models.Account, perAccount int) ([]string, error) {
	var posts []string
	for _, user := range users {
		n := s.fake.IntRange(0, perAccount*2)
		for i := 0; i < n; i++ {
			var media models.Media
			ext := "jpg"
			if s.fake.Bool() {
				media = models.Reel{Duration: time.Duration(s.fake.IntRange(3_000, 90_000)) * time.Millisecond}
				ext = "mp4"
			} else {
				media = models.Image{AltText: s.fake.HipsterSentence()}
			}

			item, err := s.svc.Content.Publish(ctx, user.ID, content.Draft{
				Path:    fmt.Sprintf("media/%s.%s", s.fake.UUID(), ext),
				Caption: s.fake.HipsterSentence(),
				Media:   media,
			})
			if err != nil {
				return nil, err
			}
			posts = append(posts, item.Content.ID)
			s.counts.Content++
		}
	}
	return posts, nil
}

func (s *Seeder) seedFollows(ctx context.Context, users []*models.Account, attempts int) error {
	if len(users) < 2 {
		return nil
	}
	for i := 0; i < attempts; i++ {
		actor := s.pick(users)
		target := s.pick(users)
		if actor.ID == target.ID {
			continue
		}
		// most private accounts accept what they are sent
		if err := s.ensureFollow(ctx, actor.ID, target.ID, s.fake.Float64() < 0.7); err != nil {
			return err
		}
	}
	return nil
}

// ensureFollow moves (actor, target) toward following. With accept false
// a private target's request is left pending.
func (s *Seeder) ensureFollow(ctx context.Context, actorID, targetID string, accept bool) error {
	state, err := s.svc.Follows.RequestFollow(ctx, actorID, targetID)
	if apierrors.Is(err, apierrors.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	if state == follow.Pending && accept {
		if _, err := s.svc.Follows.AcceptRequest(ctx, targetID, actorID); err != nil {
			return err
		}
		state = follow.Following
	}
	if state == follow.Pending {
		s.counts.Pending++
	} else {
		s.counts.Follows++
	}
	return nil
}

func (s *Seeder) seedLikes(ctx context.Context, users []*models.Account, posts []string, attempts int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}
	for i := 0; i < attempts; i++ {
		_, err := s.svc.Likes.LikeContent(ctx, s.pick(users).ID, posts[s.fake.IntRange(0, len(posts)-1)])
		if skippable(err) {
			continue
		}
		if err != nil {
			return err
		}
		s.counts.Likes++
	}
	return nil
}

func (s *Seeder) seedComments(ctx context.Context, users []*models.Account, posts []string, attempts int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	var topLevel []struct{ id, contentID string }
	for i := 0; i < attempts; i++ {
		author := s.pick(users)
		contentID := posts[s.fake.IntRange(0, len(posts)-1)]

		var parentID *string
		if len(topLevel) > 0 && s.fake.Float64() < 0.4 {
			parent := topLevel[s.fake.IntRange(0, len(topLevel)-1)]
			contentID = parent.contentID
			parentID = &parent.id
		}

		view, err := s.svc.Threads.Post(ctx, author.ID, contentID, s.fake.HipsterSentence(), parentID)
		if skippable(err) {
			continue
		}
		if err != nil {
			return err
		}
		if parentID == nil {
			topLevel = append(topLevel, struct{ id, contentID string }{view.ID, contentID})
		}
		s.counts.Comments++

		if s.fake.Float64() < 0.3 {
			_, err := s.svc.Likes.LikeComment(ctx, s.pick(users).ID, view.ID)
			if err != nil && !skippable(err) {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) pick(users []*models.Account) *models.Account {
	return users[s.fake.IntRange(0, len(users)-1)]
}

// skippable errors are random picks the domain rules turn down
func skippable(err error) bool {
	return apierrors.Is(err, apierrors.ErrConflict) || apierrors.Is(err, apierrors.ErrForbidden)
}
