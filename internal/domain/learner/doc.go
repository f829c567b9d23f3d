// Package learner содержит доменную модель учащегося платформы EmbedPath.
//
// Это ядро бизнес-логики системы "HardwareHub". Пакет определяет:
//
//   - Сущности (Entities): Learner, Progress
//   - Доменный сервис: Tracker — учёт завершённых уроков, закрытие
//     учебных треков и автоматическое повышение уровня
//   - Интерфейсы репозиториев: Repository, ProgressStore
//
// Ключевые инварианты трекера:
//
//   - Идемпотентность: повторное завершение урока ничего не меняет
//     и не порождает повторных уведомлений
//   - Независимость от порядка: итоговое состояние после завершения
//     набора уроков не зависит от порядка вызовов
//   - Монотонность: множества завершённого только растут, уровень
//     только повышается (кроме явного сброса и административного
//     переопределения)
//
// Пакет не имеет внешних зависимостей — вся работа с хранилищем
// идёт через интерфейсы, реализации которых живут в infrastructure.
package learner
