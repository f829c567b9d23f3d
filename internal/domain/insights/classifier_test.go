package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makePost(title, body string) Post {
	return Post{
		ID:        "t3_abc",
		Subreddit: "arduino",
		Title:     title,
		SelfText:  body,
		URL:       "https://reddit.com/r/arduino/t3_abc",
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "esp32 not working", Normalize("ESP32   Not\n\tWorking"))
	assert.Equal(t, "", Normalize(""))
}

func TestMatchesKeywords_ShowcasePostsRejected(t *testing.T) {
	tests := []string{
		"I made a weather station with my ESP32, help me share it",
		"Huge update to my Arduino project, why not take a look",
		"Showcase: STM32 robot arm, beginner friendly",
		"My journey learning embedded, issue by issue",
	}

	for _, title := range tests {
		t.Run(title, func(t *testing.T) {
			assert.False(t, MatchesKeywords(makePost(title, "")))
		})
	}
}

func TestMatchesKeywords_RequiresHelpSignal(t *testing.T) {
	// Embedded-ключевое слово есть, но никто не просит помощи.
	post := makePost("ESP32 deep sleep power consumption measurements", "")
	assert.False(t, MatchesKeywords(post))

	post = makePost("ESP32 deep sleep not working", "")
	assert.True(t, MatchesKeywords(post))
}

func TestMatchesKeywords_RequiresEmbeddedKeyword(t *testing.T) {
	// Просьба о помощи без embedded-тематики.
	post := makePost("Help, my python script has an error", "")
	assert.False(t, MatchesKeywords(post))

	// Ключевое слово может быть в теле поста.
	post = makePost("Help, nothing happens", "the gpio pin stays low")
	assert.True(t, MatchesKeywords(post))
}

func TestAssignTheme_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  Theme
	}{
		{"power", "Why does my board reset when the battery is low", ThemeWiringPower},
		{"communication", "I2C sensor returns garbage, confused", ThemeCommunication},
		{"sensors", "ADC readings jump around, help", ThemeAnalogSensors},
		{"build", "Upload fails with a weird compile error", ThemeBuildErrors},
		{"fallback", "How do I start with a breadboard", ThemeGeneral},
		// Питание побеждает связь: "voltage" проверяется раньше "i2c".
		{"power beats communication", "Wrong voltage on the i2c bus", ThemeWiringPower},
		// Связь побеждает сборку: "uart" раньше "error".
		{"communication beats build", "UART prints error bytes", ThemeCommunication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssignTheme(makePost(tt.title, "")))
		})
	}
}

func TestAssignTheme_CaseInsensitive(t *testing.T) {
	assert.Equal(t, ThemeWiringPower, AssignTheme(makePost("BATTERY drains overnight", "")))
}

func TestClassify(t *testing.T) {
	theme, ok := Classify(makePost("ESP32 I2C sensor not working", ""))
	assert.True(t, ok)
	assert.Equal(t, ThemeCommunication, theme)

	_, ok = Classify(makePost("Showcase: my new ESP32 board", ""))
	assert.False(t, ok)
}

func TestPost_Validate(t *testing.T) {
	post := makePost("Title", "body")
	assert.NoError(t, post.Validate())

	post.Title = ""
	assert.ErrorIs(t, post.Validate(), ErrEmptyTitle)

	post = makePost("Title", "")
	post.URL = ""
	assert.ErrorIs(t, post.Validate(), ErrEmptyURL)
}
