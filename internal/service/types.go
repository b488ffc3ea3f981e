package service

import (
	"time"

	"blueprint-eval-go/internal/validator"
	"blueprint-eval-go/pkg/models"
)

// DetectionResult — результат онлайн-пайплайна валидации ответа модели.
// Неудачное извлечение не является ошибкой: возвращается пустой список комнат
// с диагностической причиной.
type DetectionResult struct {
	Status       string                     `json:"status"`             // Статус выполнения (success/error)
	Message      string                     `json:"message,omitempty"`  // Сообщение об ошибке внешнего вызова
	Rooms        []models.Room              `json:"rooms"`              // Валидированные комнаты
	Reason       string                     `json:"reason,omitempty"`   // Причина пустого результата извлечения
	RawRoomCount int                        `json:"raw_room_count"`     // Количество записей до валидации
	DroppedCount int                        `json:"dropped_count"`      // Количество отбракованных записей
	Rejected     []validator.RejectedRecord `json:"rejected,omitempty"` // Причины отбраковки
	Cached       bool                       `json:"cached,omitempty"`   // Результат взят из кэша
}

// EvaluateRequest — запрос на batch-оценку точности по тестовому набору
type EvaluateRequest struct {
	SuiteDir     string  `json:"suite_dir"`     // Директория тестового набора с манифестом
	ResultsDir   string  `json:"results_dir"`   // Директория с файлами предсказаний
	IoUThreshold float64 `json:"iou_threshold"` // Порог IoU (0 — значение по умолчанию)
	WorstN       int     `json:"worst_n"`       // Размер списка худших кейсов (0 — по умолчанию)
}

// EvaluationRunResponse — ответ с результатами прогона оценки
type EvaluationRunResponse struct {
	ID           string                  `json:"id"`
	SuiteDir     string                  `json:"suite_dir"`
	ResultsDir   string                  `json:"results_dir"`
	IoUThreshold float64                 `json:"iou_threshold"`
	WorstN       int                     `json:"worst_n"`
	Report       models.EvaluationReport `json:"report"`
	CreatedAt    time.Time               `json:"created_at"`
}

// ListRunsResponse — ответ со списком прогонов оценки
type ListRunsResponse struct {
	Runs  []EvaluationRunResponse `json:"runs"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Size  int                     `json:"size"`
}
