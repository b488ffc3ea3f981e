package handler

import (
	"io"
	"net/http"

	"blueprint-eval-go/internal/service"
	"blueprint-eval-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DetectionHandler обработчик онлайн-пайплайна распознавания комнат
type DetectionHandler struct {
	detectionService *service.DetectionService
	logger           *logrus.Logger
}

// NewDetectionHandler создает новый обработчик
func NewDetectionHandler(detectionService *service.DetectionService, logger *logrus.Logger) *DetectionHandler {
	return &DetectionHandler{
		detectionService: detectionService,
		logger:           logger,
	}
}

// RegisterRoutes регистрирует маршруты онлайн-пайплайна
func (h *DetectionHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/detect", h.DetectRooms)
		api.POST("/detect/validate", h.ValidateResponse)
		api.GET("/health", h.HealthCheck)
	}
}

// DetectRooms обрабатывает запрос на распознавание комнат на чертеже
// @Summary Распознавание комнат на чертеже
// @Description Отправляет чертеж vision-модели и возвращает валидированный список комнат
// @Tags detection
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Изображение чертежа"
// @Param complexity formData string false "Сложность чертежа" Enums(simple, standard, complex) default(standard)
// @Param hasSmallText formData boolean false "Есть ли на чертеже мелкий текст"
// @Success 200 {object} service.DetectionResult
// @Failure 400 {object} gin.H
// @Failure 500 {object} gin.H
// @Router /detect [post]
func (h *DetectionHandler) DetectRooms(c *gin.Context) {
	h.logger.Info("Получен запрос на распознавание комнат")

	// Парсим multipart form
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	// Получаем файл изображения
	imageFile, header, err := c.Request.FormFile("image")
	if err != nil {
		h.logger.Errorf("Ошибка получения файла изображения: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл изображения обязателен"})
		return
	}
	defer imageFile.Close()

	imageData, err := io.ReadAll(imageFile)
	if err != nil {
		h.logger.Errorf("Ошибка чтения файла изображения: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка чтения файла изображения"})
		return
	}

	complexity := c.PostForm("complexity")
	if complexity == "" {
		complexity = "standard"
	}

	request := models.DetectRequest{
		ImageData:     imageData,
		ImageFilename: header.Filename,
		Complexity:    complexity,
		HasSmallText:  c.PostForm("hasSmallText") == "true",
	}

	result, err := h.detectionService.DetectRooms(c.Request.Context(), request)
	if err != nil {
		h.logger.Errorf("Ошибка сервиса распознавания: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
		return
	}

	h.logger.Infof("Распознавание завершено: %d комнат", len(result.Rooms))
	c.JSON(http.StatusOK, result)
}

// validateRequest — тело запроса на валидацию сырого ответа модели
type validateRequest struct {
	ResponseText string `json:"response_text" binding:"required"`
}

// ValidateResponse валидирует сырой текстовый ответ модели без обращения к vision API.
// Неудачное извлечение — не ошибка: возвращается пустой список комнат с причиной.
func (h *DetectionHandler) ValidateResponse(c *gin.Context) {
	var request validateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поле response_text обязательно"})
		return
	}

	result := h.detectionService.ValidateResponse(c.Request.Context(), request.ResponseText)
	c.JSON(http.StatusOK, result)
}

// HealthCheck проверяет состояние сервиса
func (h *DetectionHandler) HealthCheck(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья")

	health, err := h.detectionService.CheckHealth()
	if err != nil {
		h.logger.Errorf("Ошибка проверки здоровья: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка проверки состояния сервиса"})
		return
	}

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}
