package seed

import (
	"fmt"
	"os"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written dataset, usually loaded from YAML, used to
// stage demo accounts with predictable emails.
type Fixture struct {
	Users   []FixtureUser   `yaml:"users"`
	Posts   []FixturePost   `yaml:"posts"`
	Follows []FixtureFollow `yaml:"follows"`
}

type FixtureUser struct {
	Email    string `yaml:"email"`
	Nickname string `yaml:"nickname"`
	Password string `yaml:"password"`
	ImageURL string `yaml:"image_url"`
	Admin    bool   `yaml:"admin"`
}

type FixturePost struct {
	Author   string `yaml:"author"`
	Content  string `yaml:"content"`
	ImageURL string `yaml:"image_url"`
}

type FixtureFollow struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	known := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		email := validation.NormalizeEmail(u.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
		if err := validation.ValidateNickname(strings.TrimSpace(u.Nickname)); err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
		if known[email] {
			return nil, fmt.Errorf("users[%d]: duplicate email %s", i, email)
		}
		known[email] = true
		fx.Users[i].Email = email
	}
	for i, p := range fx.Posts {
		p.Author = validation.NormalizeEmail(p.Author)
		if !known[p.Author] {
			return nil, fmt.Errorf("posts[%d]: unknown author %q", i, p.Author)
		}
		fx.Posts[i].Author = p.Author
	}
	for i, f := range fx.Follows {
		from, to := validation.NormalizeEmail(f.From), validation.NormalizeEmail(f.To)
		if !known[from] || !known[to] {
			return nil, fmt.Errorf("follows[%d]: unknown user", i)
		}
		if from == to {
			return nil, fmt.Errorf("follows[%d]: self-follow", i)
		}
		fx.Follows[i] = FixtureFollow{From: from, To: to}
	}
	return &fx, nil
}

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// Apply inserts the fixture. Users whose email already exists are reused
// as-is, so applying the same fixture twice does not duplicate accounts.
func (fx *Fixture) Apply(db *gorm.DB, opts Options) error {
	f, err := NewFactory(db, opts)
	if err != nil {
		return err
	}

	byEmail := make(map[string]*models.User, len(fx.Users))
	for _, fu := range fx.Users {
		if !opts.DryRun {
			var existing models.User
			if err := db.Where("email = ?", fu.Email).Limit(1).Find(&existing).Error; err != nil {
				return fmt.Errorf("lookup %s: %w", fu.Email, err)
			}
			if existing.ID != 0 {
				byEmail[fu.Email] = &existing
				continue
			}
		}

		digest := f.digest
		if fu.Password != "" {
			if digest, err = f.hasher.Hash(fu.Password); err != nil {
				return err
			}
		}
		fu := fu
		user, err := f.CreateUser(func(u *models.User) {
			u.Email = fu.Email
			u.Nickname = strings.TrimSpace(fu.Nickname)
			u.Password = &digest
			u.IsAdmin = fu.Admin
			if fu.ImageURL != "" {
				u.ImageURL = fu.ImageURL
			}
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", fu.Email, err)
		}
		byEmail[fu.Email] = user
	}

	for _, fp := range fx.Posts {
		fp := fp
		if _, err := f.CreatePost(byEmail[fp.Author], func(p *models.Post) {
			p.Content = validation.SanitizeText(fp.Content)
			p.ImageURL = fp.ImageURL
		}); err != nil {
			return fmt.Errorf("create post for %s: %w", fp.Author, err)
		}
	}

	for _, ff := range fx.Follows {
		from, to := byEmail[ff.From], byEmail[ff.To]
		exists := false
		if !opts.DryRun {
			var count int64
			if err := db.Model(&models.Follow{}).
				Where("follower_id = ? AND following_id = ?", from.ID, to.ID).
				Count(&count).Error; err != nil {
				return err
			}
			exists = count > 0
		}
		if exists {
			continue
		}
		if err := f.CreateFollow(from, to); err != nil {
			return fmt.Errorf("follow %s -> %s: %w", ff.From, ff.To, err)
		}
	}
	return nil
}
