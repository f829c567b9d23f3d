package service

import (
	"context"
	"strconv"

	"github.com/embedpath/hardwarehub-backend/internal/application/query"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/external/quizgen"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ SERVICE
// Адаптер генератора квизов: кеширует сгенерированные квизы в Redis,
// чтобы не дёргать внешний сервис на каждый просмотр урока. Demo-квизы
// не кешируются - они и так бесплатные.
// ══════════════════════════════════════════════════════════════════════════════

// QuizService реализует query.QuizGenerator поверх quizgen.Client.
type QuizService struct {
	client *quizgen.Client
	cache  *redis.Cache
}

// NewQuizService создаёт новый сервис квизов. Cache может быть nil.
func NewQuizService(client *quizgen.Client, cache *redis.Cache) *QuizService {
	return &QuizService{
		client: client,
		cache:  cache,
	}
}

// GenerateQuiz возвращает квиз урока, из кеша или от генератора.
func (s *QuizService) GenerateQuiz(ctx context.Context, lessonID int, lessonTitle, tier string) (*query.QuizDTO, error) {
	key := redis.QuizKey(strconv.Itoa(lessonID))

	if s.cache != nil {
		var cached query.QuizDTO
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	quiz, err := s.client.Generate(ctx, lessonID, lessonTitle, tier)
	if err != nil {
		return nil, err
	}

	dto := toQuizDTO(quiz)

	if s.cache != nil && !quiz.Demo {
		_ = s.cache.Set(ctx, key, dto, redis.TTLQuizCache)
	}

	return dto, nil
}

func toQuizDTO(quiz *quizgen.Quiz) *query.QuizDTO {
	dto := &query.QuizDTO{
		LessonID:  quiz.LessonID,
		Title:     quiz.Title,
		Questions: make([]query.QuizQuestionDTO, 0, len(quiz.Questions)),
		Demo:      quiz.Demo,
	}
	for _, q := range quiz.Questions {
		dto.Questions = append(dto.Questions, query.QuizQuestionDTO{
			Prompt:      q.Prompt,
			Options:     q.Options,
			AnswerIndex: q.AnswerIndex,
		})
	}
	return dto
}
