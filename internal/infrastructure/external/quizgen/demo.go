package quizgen

import "fmt"

// demoQuiz возвращает заготовленный квиз, когда внешний генератор
// недоступен или не настроен. Вопросы общие для встраиваемой электроники,
// поэтому подходят любому уроку.
func demoQuiz(lessonID int, lessonTitle string) *Quiz {
	title := lessonTitle
	if title == "" {
		title = fmt.Sprintf("Lesson %d", lessonID)
	}

	return &Quiz{
		LessonID: lessonID,
		Title:    title + " — quick check",
		Demo:     true,
		Questions: []Question{
			{
				Prompt: "What voltage level do most modern microcontroller GPIO pins use?",
				Options: []string{
					"12V",
					"3.3V",
					"48V",
					"230V",
				},
				AnswerIndex: 1,
			},
			{
				Prompt: "Which component limits current through an LED?",
				Options: []string{
					"A capacitor",
					"An inductor",
					"A resistor",
					"A diode",
				},
				AnswerIndex: 2,
			},
			{
				Prompt: "Which bus uses the SDA and SCL lines?",
				Options: []string{
					"SPI",
					"UART",
					"I2C",
					"CAN",
				},
				AnswerIndex: 2,
			},
			{
				Prompt: "What does an ADC do?",
				Options: []string{
					"Converts an analog signal to a digital value",
					"Amplifies a digital clock",
					"Stores program memory",
					"Regulates supply voltage",
				},
				AnswerIndex: 0,
			},
			{
				Prompt: "A floating input pin should be stabilized with what?",
				Options: []string{
					"A pull-up or pull-down resistor",
					"A larger power supply",
					"A longer wire",
					"A second microcontroller",
				},
				AnswerIndex: 0,
			},
		},
	}
}
