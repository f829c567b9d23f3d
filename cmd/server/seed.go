package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG SEED
// Стартовая программа обучения. Вшитый набор используется для свежей базы;
// файл CATALOG_SEED_FILE позволяет подменить программу без пересборки.
// ══════════════════════════════════════════════════════════════════════════════

// seedLesson - запись урока в JSON-файле программы.
type seedLesson struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	RequiredTier string `json:"required_tier"`
	PathID       string `json:"path_id"`
	Position     int    `json:"position"`
}

// loadSeedLessons возвращает программу из файла, либо вшитую по умолчанию.
func loadSeedLessons(seedFile string) ([]catalog.Lesson, error) {
	if seedFile == "" {
		return defaultCurriculum(), nil
	}

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed file: %w", err)
	}

	var records []seedLesson
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse catalog seed file: %w", err)
	}

	lessons := make([]catalog.Lesson, 0, len(records))
	for _, rec := range records {
		tier := shared.SkillTier(rec.RequiredTier).Normalize()
		if !tier.IsKnown() {
			return nil, fmt.Errorf("lesson %d: unknown tier %q", rec.ID, rec.RequiredTier)
		}
		lessons = append(lessons, catalog.Lesson{
			ID:           shared.LessonID(rec.ID),
			Title:        rec.Title,
			RequiredTier: tier,
			PathID:       shared.PathID(rec.PathID),
			Position:     rec.Position,
		})
	}
	return lessons, nil
}

// defaultCurriculum - вшитая стартовая программа: три трека от мигающего
// светодиода до RTOS.
func defaultCurriculum() []catalog.Lesson {
	return []catalog.Lesson{
		// Трек 1: основы Arduino (входной трек для новичков).
		{ID: 1, Title: "Getting Started: Your First Blink", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 1},
		{ID: 2, Title: "Digital Pins and Buttons", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 2},
		{ID: 3, Title: "Reading Analog Signals", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 3},
		{ID: 4, Title: "PWM and LED Dimming", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 4},
		{ID: 5, Title: "Powering Your Project Safely", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 5},

		// Трек 2: датчики и сигналы.
		{ID: 10, Title: "Temperature Sensors: DHT22 and DS18B20", RequiredTier: shared.TierIntermediate, PathID: "sensors-and-signals", Position: 1},
		{ID: 11, Title: "Debouncing and Interrupts", RequiredTier: shared.TierIntermediate, PathID: "sensors-and-signals", Position: 2},
		{ID: 12, Title: "ADC Resolution and Noise", RequiredTier: shared.TierIntermediate, PathID: "sensors-and-signals", Position: 3},
		{ID: 13, Title: "Calibrating Analog Sensors", RequiredTier: shared.TierIntermediate, PathID: "sensors-and-signals", Position: 4},

		// Трек 3: протоколы связи.
		{ID: 20, Title: "I2C: Talking to Multiple Devices", RequiredTier: shared.TierIntermediate, PathID: "embedded-comms", Position: 1},
		{ID: 21, Title: "SPI for High-Speed Peripherals", RequiredTier: shared.TierIntermediate, PathID: "embedded-comms", Position: 2},
		{ID: 22, Title: "UART Debugging Techniques", RequiredTier: shared.TierIntermediate, PathID: "embedded-comms", Position: 3},

		// Продвинутые уроки вне треков.
		{ID: 30, Title: "FreeRTOS Tasks on ESP32", RequiredTier: shared.TierAdvanced, Position: 1},
		{ID: 31, Title: "Writing Bare-Metal STM32 Drivers", RequiredTier: shared.TierAdvanced, Position: 2},
	}
}
