package seed

import (
	"fmt"
	"strings"
	"time"

	"unnest/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

const maxUsernameBase = 14

// Factory produces fake users and posts. The same seed yields the same data.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a Factory seeded with seed, or with the clock when seed is 0.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{faker: gofakeit.New(seed)}
}

// User builds the n-th generated user. The index is folded into the username
// and email so a run never collides with itself.
func (f *Factory) User(n int) UserFixture {
	base := strings.ToLower(f.faker.FirstName())
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "user"
	}
	if len(base) > maxUsernameBase {
		base = base[:maxUsernameBase]
	}
	username := fmt.Sprintf("%s%d", base, n+1)

	return UserFixture{
		Username: username,
		Email:    fmt.Sprintf("%s@%s", username, f.faker.DomainName()),
		Bio:      f.faker.Sentence(12),
	}
}

// Post builds a post filed under one of the fixed categories.
func (f *Factory) Post() PostFixture {
	title := strings.TrimSuffix(f.faker.Sentence(5), ".")
	if len(title) > 100 {
		title = title[:100]
	}
	return PostFixture{
		Title:        title,
		Introduction: f.faker.Sentence(20),
		Content:      f.faker.Paragraph(3, 4, 12, "\n\n"),
		Category:     f.faker.RandomString(models.Categories),
		ImageTitle:   f.faker.HipsterSentence(4),
	}
}
