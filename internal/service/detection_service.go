package service

import (
	"context"
	"fmt"

	"blueprint-eval-go/internal/cache"
	"blueprint-eval-go/internal/client"
	"blueprint-eval-go/internal/extractor"
	"blueprint-eval-go/internal/validator"
	"blueprint-eval-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// DetectionService — онлайн-пайплайн распознавания комнат: вызов vision-модели,
// извлечение записей из текстового ответа и валидация
type DetectionService struct {
	visionClient *client.VisionAPIClient
	extractor    *extractor.Extractor
	validator    *validator.Validator
	cache        *cache.Cache // nil, если кэш отключен
	logger       *logrus.Logger
}

// NewDetectionService создает новый сервис распознавания
func NewDetectionService(visionClient *client.VisionAPIClient, v *validator.Validator, c *cache.Cache, logger *logrus.Logger) *DetectionService {
	return &DetectionService{
		visionClient: visionClient,
		extractor:    extractor.New(),
		validator:    v,
		cache:        c,
		logger:       logger,
	}
}

// DetectRooms выполняет полный онлайн-путь: изображение → vision-модель →
// извлечение → валидация
func (s *DetectionService) DetectRooms(ctx context.Context, request models.DetectRequest) (*DetectionResult, error) {
	s.logger.Infof("Начинаем распознавание комнат для чертежа %s", request.ImageFilename)

	// 1. Отправляем чертеж в vision API, модель для нас — черный ящик
	visionResp, err := s.visionClient.DetectRooms(request)
	if err != nil {
		s.logger.Errorf("Ошибка при обращении к vision API: %v", err)
		return &DetectionResult{
			Status:  "error",
			Message: fmt.Sprintf("Ошибка распознавания vision-моделью: %v", err),
			Rooms:   []models.Room{},
		}, nil
	}

	if visionResp.Status != "success" {
		s.logger.Errorf("Vision API вернул ошибку: %s", visionResp.Message)
		return &DetectionResult{
			Status:  "error",
			Message: fmt.Sprintf("Ошибка от vision API: %s", visionResp.Message),
			Rooms:   []models.Room{},
		}, nil
	}

	// 2. Извлекаем и валидируем комнаты из текстового ответа
	return s.ValidateResponse(ctx, visionResp.ResponseText), nil
}

// ValidateResponse превращает сырой текстовый ответ модели в валидированный
// список комнат. Неудачное извлечение дает пустой список с причиной,
// а не ошибку: один плохой ответ не должен ронять пайплайн.
func (s *DetectionService) ValidateResponse(ctx context.Context, responseText string) *DetectionResult {
	key := cache.ResponseKey(responseText)

	// Проверяем кэш: валидация детерминирована по тексту ответа
	if s.cache != nil {
		var cached DetectionResult
		if s.cache.Get(ctx, key, &cached) {
			s.logger.Debug("Результат валидации найден в кэше")
			cached.Cached = true
			return &cached
		}
	}

	records, err := s.extractor.Extract(responseText)
	if err != nil {
		s.logger.Warnf("Извлечение не удалось: %v", err)
		result := &DetectionResult{
			Status: "success",
			Rooms:  []models.Room{},
			Reason: err.Error(),
		}
		s.storeInCache(ctx, key, result)
		return result
	}

	rooms, report := s.validator.Validate(records)
	if len(report.Rejected) > 0 {
		s.logger.Infof("Отбраковано %d из %d записей", len(report.Rejected), report.TotalRecords)
	}

	result := &DetectionResult{
		Status:       "success",
		Rooms:        rooms,
		RawRoomCount: report.TotalRecords,
		DroppedCount: len(report.Rejected),
		Rejected:     report.Rejected,
	}

	s.storeInCache(ctx, key, result)
	return result
}

// storeInCache сохраняет результат валидации, если кэш включен
func (s *DetectionService) storeInCache(ctx context.Context, key string, result *DetectionResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.Warnf("Не удалось сохранить результат в кэше: %v", err)
	}
}

// CheckHealth проверяет состояние сервиса и его зависимостей
func (s *DetectionService) CheckHealth() (*models.HealthResponse, error) {
	s.logger.Debug("Проверяем состояние сервиса распознавания")

	// Проверяем состояние vision API
	visionHealth, err := s.visionClient.CheckHealth()
	if err != nil {
		s.logger.Errorf("Vision API недоступен: %v", err)
		return &models.HealthResponse{
			Status:      "unhealthy",
			ModelLoaded: false,
			Version:     "1.0.0",
		}, nil
	}

	return visionHealth, nil
}
