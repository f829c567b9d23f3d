package insights

import (
	"regexp"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// THEMES
// ══════════════════════════════════════════════════════════════════════════════

// Theme - тема, к которой относится вопрос новичка.
type Theme string

const (
	// ThemeWiringPower - питание, напряжения, проводка.
	ThemeWiringPower Theme = "Wiring & Power"

	// ThemeCommunication - интерфейсы связи (I2C, SPI, UART, CAN).
	ThemeCommunication Theme = "Communication"

	// ThemeAnalogSensors - датчики, АЦП, аналоговые сигналы.
	ThemeAnalogSensors Theme = "Analog & Sensors"

	// ThemeBuildErrors - ошибки сборки, компиляции и прошивки.
	ThemeBuildErrors Theme = "Build / Compile Errors"

	// ThemeGeneral - общая помощь начинающим (тема по умолчанию).
	ThemeGeneral Theme = "General Beginner Help"
)

// Themes возвращает все известные темы в порядке приоритета классификации.
func Themes() []Theme {
	return []Theme{
		ThemeWiringPower,
		ThemeCommunication,
		ThemeAnalogSensors,
		ThemeBuildErrors,
		ThemeGeneral,
	}
}

// String возвращает строковое представление темы.
func (t Theme) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASSIFIER
// Списки фраз и порядок проверок воспроизводят отладочную аналитику,
// настроенную на реальных выгрузках; менять порядок тем - значит менять
// разметку уже собранных данных.
// ══════════════════════════════════════════════════════════════════════════════

// Ключевые слова embedded-тематики: пост обязан задеть хотя бы одно.
var keywords = []string{
	"arduino",
	"esp32",
	"stm32",
	"microcontroller",
	"embedded",
	"gpio",
	"i2c",
	"spi",
	"uart",
	"serial",
	"firmware",
	"sensor",
	"adc",
	"pwm",
	"breadboard",
}

// Витринные посты и анонсы - не вопросы, отсекаются сразу.
var badPhrases = []string{
	"i made",
	"huge update",
	"update to my",
	"project update",
	"showcase",
	"tutorial",
	"built this",
	"my journey",
}

// Сигналы просьбы о помощи / языка новичка.
var helpSignals = []string{
	"help",
	"not working",
	"doesn't work",
	"doesnt work",
	"cant",
	"can't",
	"error",
	"problem",
	"beginner",
	"newbie",
	"how do i",
	"why",
	"confused",
	"issue",
	"fail",
	"unable",
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize приводит текст к нижнему регистру и схлопывает пробелы.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return whitespaceRegex.ReplaceAllString(strings.ToLower(text), " ")
}

// MatchesKeywords решает, интересен ли пост: не витрина, содержит сигнал
// просьбы о помощи и хотя бы одно embedded-ключевое слово.
func MatchesKeywords(post Post) bool {
	t := Normalize(post.Text())

	for _, phrase := range badPhrases {
		if strings.Contains(t, phrase) {
			return false
		}
	}

	hasHelpSignal := false
	for _, signal := range helpSignals {
		if strings.Contains(t, signal) {
			hasHelpSignal = true
			break
		}
	}
	if !hasHelpSignal {
		return false
	}

	for _, keyword := range keywords {
		if strings.Contains(t, keyword) {
			return true
		}
	}
	return false
}

// AssignTheme назначает тему поста. Проверки идут в фиксированном порядке
// приоритета; ничего не совпало - общая тема.
func AssignTheme(post Post) Theme {
	t := Normalize(post.Text())

	if containsAny(t, "power", "voltage", "battery", "5v", "3.3v") {
		return ThemeWiringPower
	}
	if containsAny(t, "i2c", "spi", "uart", "serial", "can") {
		return ThemeCommunication
	}
	if containsAny(t, "sensor", "adc", "analog", "voltage divider") {
		return ThemeAnalogSensors
	}
	if containsAny(t, "error", "compile", "upload", "flash") {
		return ThemeBuildErrors
	}
	return ThemeGeneral
}

// Classify объединяет фильтр и разметку: подходит ли пост и какая у него
// тема. Второе значение false - пост отброшен.
func Classify(post Post) (Theme, bool) {
	if !MatchesKeywords(post) {
		return "", false
	}
	return AssignTheme(post), true
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
