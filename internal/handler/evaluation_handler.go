package handler

import (
	"net/http"
	"strconv"

	"blueprint-eval-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EvaluationHandler обработчик batch-оценки точности распознавания
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
	logger            *logrus.Logger
}

// NewEvaluationHandler создает новый обработчик
func NewEvaluationHandler(evaluationService *service.EvaluationService, logger *logrus.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: evaluationService,
		logger:            logger,
	}
}

// RegisterRoutes регистрирует маршруты оценки
func (h *EvaluationHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/evaluations", h.RunEvaluation)
		api.GET("/evaluations", h.ListRuns)
		api.GET("/evaluations/:id", h.GetRun)
		api.DELETE("/evaluations/:id", h.DeleteRun)
	}
}

// RunEvaluation запускает batch-оценку по тестовому набору
// @Summary Запуск batch-оценки точности
// @Description Сопоставляет предсказания с эталоном по всему набору и сохраняет отчет
// @Tags evaluation
// @Accept json
// @Produce json
// @Param request body service.EvaluateRequest true "Параметры прогона"
// @Success 200 {object} service.EvaluationRunResponse
// @Failure 400 {object} gin.H
// @Failure 500 {object} gin.H
// @Router /evaluations [post]
func (h *EvaluationHandler) RunEvaluation(c *gin.Context) {
	h.logger.Info("Получен запрос на запуск оценки")

	var request service.EvaluateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректное тело запроса"})
		return
	}

	if request.SuiteDir == "" || request.ResultsDir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поля suite_dir и results_dir обязательны"})
		return
	}

	if request.IoUThreshold < 0 || request.IoUThreshold > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "iou_threshold должен быть в диапазоне [0, 1]"})
		return
	}

	response, err := h.evaluationService.RunEvaluation(request)
	if err != nil {
		h.logger.Errorf("Ошибка прогона оценки: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetRun возвращает сохраненный прогон оценки по ID
func (h *EvaluationHandler) GetRun(c *gin.Context) {
	runID := c.Param("id")

	response, err := h.evaluationService.GetRun(runID)
	if err != nil {
		h.logger.Errorf("Ошибка получения прогона %s: %v", runID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Прогон оценки не найден"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListRuns возвращает список прогонов с пагинацией
func (h *EvaluationHandler) ListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	response, err := h.evaluationService.ListRuns(page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка прогонов: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения списка прогонов"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteRun удаляет прогон оценки
func (h *EvaluationHandler) DeleteRun(c *gin.Context) {
	runID := c.Param("id")

	if err := h.evaluationService.DeleteRun(runID); err != nil {
		h.logger.Errorf("Ошибка удаления прогона %s: %v", runID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Прогон оценки не найден"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Прогон оценки удален"})
}
