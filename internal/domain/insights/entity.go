// Package insights содержит доменную модель "инсайтов сообщества" -
// вопросов начинающих из профильных сообществ (r/arduino, r/esp32 и т.п.),
// отфильтрованных и размеченных по темам. Инсайты подсказывают, с чем
// реально мучаются новички, и подпитывают выбор материала для уроков.
package insights

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// POST
// ══════════════════════════════════════════════════════════════════════════════

// Post - один пост из сообщества.
type Post struct {
	// ID - внешний идентификатор поста в источнике (fullname вида "t3_...").
	// Служит ключом идемпотентности при повторных выгрузках.
	ID string

	// Subreddit - сообщество-источник (без префикса "r/").
	Subreddit string

	// Title - заголовок поста.
	Title string

	// SelfText - тело поста (может быть пустым).
	SelfText string

	// Score - рейтинг поста на момент сбора.
	Score int

	// NumComments - количество комментариев на момент сбора.
	NumComments int

	// URL - постоянная ссылка (уникальна; служит ключом дедупликации).
	URL string

	// Theme - назначенная тема (пустая до классификации).
	Theme Theme

	// ScrapedAt - время сбора.
	ScrapedAt time.Time
}

// Text возвращает заголовок и тело одной строкой для анализа.
func (p Post) Text() string {
	return p.Title + " " + p.SelfText
}

// Validate проверяет минимальную целостность поста.
func (p Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(p.URL) == "" {
		return ErrEmptyURL
	}
	return nil
}

// String возвращает строковое представление для логирования.
func (p Post) String() string {
	return fmt.Sprintf("Post{r/%s, %q, score: %d}", p.Subreddit, p.Title, p.Score)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyTitle - пост без заголовка.
	ErrEmptyTitle = errors.New("post title is required")

	// ErrEmptyURL - пост без постоянной ссылки.
	ErrEmptyURL = errors.New("post url is required")
)
