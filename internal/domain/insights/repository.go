package insights

import (
	"context"
	"time"
)

// Repository - контракт хранилища постов сообщества.
//
// Upsert идемпотентен по внешнему идентификатору поста: повторная выгрузка
// того же поста обновляет счётчики (score, комментарии), а не дублирует
// запись.
type Repository interface {
	// Upsert сохраняет пост, обновляя существующий по post.ID.
	// Возвращает true, если пост был создан впервые.
	Upsert(ctx context.Context, post Post) (bool, error)

	// List возвращает последние посты, новые первыми.
	List(ctx context.Context, limit int) ([]Post, error)

	// ListByTheme возвращает последние посты заданной темы.
	ListByTheme(ctx context.Context, theme Theme, limit int) ([]Post, error)

	// CountByTheme возвращает количество постов по каждой теме.
	CountByTheme(ctx context.Context) (map[Theme]int, error)

	// DeleteOlderThan удаляет посты, собранные до cutoff.
	// Возвращает количество удалённых записей.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
