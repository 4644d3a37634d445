package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// defaultThreads are the interest categories every install starts with
var defaultThreads = []struct {
	Name        string
	Description string
}{
	{"Oil Painting", "Traditional oils, from alla prima to glazing"},
	{"Watercolor", "Transparent and gouache work on paper"},
	{"Digital Illustration", "Drawn on a tablet, finished on a screen"},
	{"Character Design", "Original characters and concept sheets"},
	{"Urban Sketching", "Drawing on location, usually in ink and wash"},
	{"Printmaking", "Linocut, etching, screen print and friends"},
	{"Ceramics", "Thrown, hand-built and sculpted clay"},
	{"Photography", "Film and digital, documentary and staged"},
	{"Essays", "Writing about process, craft and the art life"},
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating threads...")
	threads, err := s.seedThreads()
	if err != nil {
		return fmt.Errorf("failed to seed threads: %w", err)
	}

	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating works...")
	works, err := s.seedWorks(users, threads, 300)
	if err != nil {
		return fmt.Errorf("failed to seed works: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, works, 800); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with minimal fixed data
func (s *Seeder) SeedTest() error {
	threads, err := s.seedThreads()
	if err != nil {
		return fmt.Errorf("failed to seed threads: %w", err)
	}

	specs := []struct {
		username    string
		displayName string
	}{
		{"alice", "Alice Smith"},
		{"bob", "Bob Johnson"},
		{"charlie", "Charlie Brown"},
	}

	var users []models.User
	for _, spec := range specs {
		var user models.User
		if err := s.db.Where("username = ?", spec.username).First(&user).Error; err == nil {
			users = append(users, user)
			continue
		}
		user = models.User{
			Email:              spec.username + "@example.com",
			Username:           spec.username,
			DisplayName:        spec.displayName,
			AvatarURL:          fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
			EmailNotifications: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	works, err := s.seedWorks(users, threads, 9)
	if err != nil {
		return fmt.Errorf("failed to seed works: %w", err)
	}
	if err := s.seedComments(users, works, 15); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}
	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	tables := []string{
		"detection_events",
		"notifications",
		"comments",
		"work_threads",
		"work_versions",
		"works",
		"threads",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedThreads() ([]models.Thread, error) {
	var threads []models.Thread
	for _, spec := range defaultThreads {
		slug := slugFromName(spec.Name)
		var thread models.Thread
		if err := s.db.Where("slug = ?", slug).First(&thread).Error; err == nil {
			threads = append(threads, thread)
			continue
		}
		thread = models.Thread{
			Name:        spec.Name,
			Slug:        slug,
			Description: spec.Description,
		}
		if err := s.db.Create(&thread).Error; err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	logger.Log.Info("Seeded threads", zap.Int("count", len(threads)))
	return threads, nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing seed users, skipping creation",
			zap.Int("total_users", len(users)))
		return users, nil
	}

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := fmt.Sprintf("%s@example.com", username)

		var existing models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = fmt.Sprintf("%s@example.com", username)
		}

		user := models.User{
			Email:              email,
			Username:           username,
			DisplayName:        gofakeit.Name(),
			Bio:                gofakeit.HipsterSentence(),
			Location:           fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			AvatarURL:          fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			EmailNotifications: rand.Float32() < 0.8,
		}
		if rand.Float32() < 0.5 {
			user.SocialLinks = &models.SocialLinks{
				Instagram: "https://instagram.com/" + username,
				Website:   gofakeit.URL(),
			}
		}
		lastActive := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		user.LastActiveAt = &lastActive

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created seed users", zap.Int("count", len(users)))
	return users, nil
}

var workTitleTemplates = []string{
	"Study in %s",
	"%s at Dusk",
	"Portrait of %s",
	"After the %s",
	"%s, Unfinished",
}

func (s *Seeder) seedWorks(users []models.User, threads []models.Thread, count int) ([]models.Work, error) {
	var works []models.Work
	if len(users) == 0 {
		return works, nil
	}

	createWork := func(user models.User) error {
		workType := models.WorkTypeImage
		roll := rand.Float32()
		if roll > 0.85 {
			workType = models.WorkTypeEssay
		} else if roll > 0.75 {
			workType = models.WorkTypeTextPost
		}

		title := fmt.Sprintf(workTitleTemplates[rand.Intn(len(workTitleTemplates))], gofakeit.NounConcrete())
		work := models.Work{
			AuthorID:    user.ID,
			Title:       title,
			WorkType:    workType,
			Description: gofakeit.Sentence(12),
			IsPublished: true,
			LikeCount:   rand.Intn(100),
		}
		if workType == models.WorkTypeImage {
			seedNum := rand.Intn(1000)
			work.ImagePath = fmt.Sprintf("media/%s/seed-%d.jpg", user.ID, seedNum)
			work.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%d/1200/900", seedNum)
			work.Width = 1200
			work.Height = 900
		} else {
			work.Content = gofakeit.Paragraph(3, 5, 12, "\n\n")
		}

		createdAt := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		work.CreatedAt = createdAt
		work.UpdatedAt = createdAt

		if err := s.db.Create(&work).Error; err != nil {
			return fmt.Errorf("failed to create work: %w", err)
		}

		// File under 1-2 threads
		threadCount := rand.Intn(2) + 1
		picked := map[int]bool{}
		for len(picked) < threadCount {
			picked[rand.Intn(len(threads))] = true
		}
		first := true
		for idx := range picked {
			thread := threads[idx]
			if err := s.db.Create(&models.WorkThread{WorkID: work.ID, ThreadID: thread.ID}).Error; err != nil {
				return err
			}
			s.db.Model(&models.Thread{}).Where("id = ?", thread.ID).
				UpdateColumn("work_count", gorm.Expr("work_count + 1"))
			if first {
				s.db.Model(&work).UpdateColumn("primary_thread_id", thread.ID)
				first = false
			}
		}

		if workType == models.WorkTypeImage {
			if err := s.db.Create(&models.WorkVersion{
				WorkID:        work.ID,
				VersionNumber: 1,
				ImagePath:     work.ImagePath,
				ImageURL:      work.ImageURL,
			}).Error; err != nil {
				return err
			}
		}

		s.db.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("work_count", gorm.Expr("work_count + 1"))

		works = append(works, work)
		return nil
	}

	// Power-law distribution: a few prolific artists, a long tail of
	// occasional posters
	prolific := int(float64(len(users)) * 0.15)
	created := 0
	for i := 0; i < prolific && created < count; i++ {
		n := 8 + rand.Intn(13)
		for j := 0; j < n && created < count; j++ {
			if err := createWork(users[i]); err != nil {
				return nil, err
			}
			created++
		}
	}
	for created < count {
		if err := createWork(users[rand.Intn(len(users))]); err != nil {
			return nil, err
		}
		created++
	}

	logger.Log.Info("Created seed works", zap.Int("count", len(works)))
	return works, nil
}

var commentTemplates = []string{
	"The light in this is wonderful",
	"Love the palette here",
	"How long did this take you?",
	"The composition really works",
	"Would love to see the process shots",
	"This one stopped my scroll",
	"Beautiful brushwork",
	"What paper are you using?",
}

func (s *Seeder) seedComments(users []models.User, works []models.Work, count int) error {
	if len(users) == 0 || len(works) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		work := works[rand.Intn(len(works))]

		var content string
		if rand.Float32() < 0.6 {
			content = commentTemplates[rand.Intn(len(commentTemplates))]
		} else {
			content = gofakeit.HipsterSentence()
		}

		comment := models.Comment{
			WorkID:  work.ID,
			UserID:  user.ID,
			Content: content,
		}
		createdAt := gofakeit.DateRange(work.CreatedAt, time.Now())
		comment.CreatedAt = createdAt
		comment.UpdatedAt = createdAt

		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		s.db.Model(&models.Work{}).Where("id = ?", work.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))
	}

	logger.Log.Info("Created seed comments", zap.Int("count", count))
	return nil
}

// slugFromName mirrors the thread handler's slug derivation for seed data
func slugFromName(name string) string {
	out := make([]rune, 0, len(name))
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
			lastDash = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out = append(out, r)
			lastDash = false
		default:
			if !lastDash && len(out) > 0 {
				out = append(out, '-')
				lastDash = true
			}
		}
	}
	if lastDash && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return string(out)
}
