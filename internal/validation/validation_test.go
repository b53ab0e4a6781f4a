package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "a@x.com", false},
		{"Plus Tag", "first.last+tag@example.co.kr", false},
		{"Missing At", "ax.com", true},
		{"Missing TLD", "a@x", true},
		{"Empty", "", true},
		{"Too Long", strings.Repeat("a", 250) + "@x.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNickname(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateNickname("A"))
	assert.NoError(t, ValidateNickname("카카오유저"))
	assert.NoError(t, ValidateNickname(strings.Repeat("가", MaxNicknameLength)))
	assert.Error(t, ValidateNickname(""))
	assert.Error(t, ValidateNickname("   "))
	assert.Error(t, ValidateNickname(strings.Repeat("a", MaxNicknameLength+1)))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePassword("pw"))
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword(strings.Repeat("p", 73)))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "hello world", "hello world"},
		{"Script Removed", `hi<script>alert(1)</script>`, "hi"},
		{"Tags Stripped", `<b>bold</b> and <a href="x">link</a>`, "bold and link"},
		{"Trimmed", "  spaced  ", "spaced"},
		{"Ampersand Kept", "salt & pepper", "salt & pepper"},
		{"Hashtags Kept", "sunset #beach", "sunset #beach"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.in))
		})
	}
}

func TestExtractHashtags(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ExtractHashtags("no tags here"))
	assert.Equal(t, []string{"beach", "sunset"}, ExtractHashtags("#Beach at #sunset #BEACH"))
	assert.Equal(t, []string{"여행", "go_lang"}, ExtractHashtags("#여행 with #go_lang!"))
	assert.Equal(t, []string{"a1"}, ExtractHashtags("#a1#a1"))
}

func TestNormalizeHashtag(t *testing.T) {
	assert.Equal(t, "travel", NormalizeHashtag(" #Travel "))
	assert.Equal(t, "travel", NormalizeHashtag("travel"))
}
