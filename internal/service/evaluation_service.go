package service

import (
	"encoding/json"
	"fmt"
	"sync"

	"blueprint-eval-go/internal/fixtures"
	"blueprint-eval-go/internal/matcher"
	"blueprint-eval-go/internal/metrics"
	"blueprint-eval-go/internal/model"
	"blueprint-eval-go/internal/repository"
	"blueprint-eval-go/internal/validator"
	"blueprint-eval-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EvaluationService — оффлайн-пайплайн batch-оценки: загрузка тестового набора,
// сопоставление предсказаний с эталоном и агрегация метрик по корпусу
type EvaluationService struct {
	evalRepo         repository.EvaluationRepository
	validator        *validator.Validator
	defaultThreshold float64
	defaultWorstN    int
	workers          int
	logger           *logrus.Logger
}

// NewEvaluationService создает новый сервис оценки
func NewEvaluationService(evalRepo repository.EvaluationRepository, v *validator.Validator, defaultThreshold float64, defaultWorstN, workers int, logger *logrus.Logger) *EvaluationService {
	if workers <= 0 {
		workers = 1
	}
	return &EvaluationService{
		evalRepo:         evalRepo,
		validator:        v,
		defaultThreshold: defaultThreshold,
		defaultWorstN:    defaultWorstN,
		workers:          workers,
		logger:           logger,
	}
}

// RunEvaluation выполняет полный прогон оценки и сохраняет отчет в базе данных
func (s *EvaluationService) RunEvaluation(request EvaluateRequest) (*EvaluationRunResponse, error) {
	threshold := request.IoUThreshold
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}
	worstN := request.WorstN
	if worstN <= 0 {
		worstN = s.defaultWorstN
	}

	s.logger.Infof("Запускаем оценку: набор %s, предсказания %s, порог IoU %.2f",
		request.SuiteDir, request.ResultsDir, threshold)

	loader := fixtures.NewLoader(request.SuiteDir, request.ResultsDir, s.logger)
	cases, err := loader.LoadSuite()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки тестового набора: %w", err)
	}

	report := s.EvaluateCases(cases, threshold, worstN)

	s.logger.Infof("Оценка завершена: %d кейсов, средний IoU %.3f, средний detection rate %.3f",
		report.CaseCount, report.MeanIoU, report.MeanDetectionRate)

	runID := uuid.New().String()
	run, err := s.toModel(runID, request, threshold, worstN, report)
	if err != nil {
		return nil, err
	}

	if err := s.evalRepo.Create(run); err != nil {
		s.logger.Errorf("Ошибка сохранения прогона в БД: %v", err)
		return nil, fmt.Errorf("failed to save evaluation run: %w", err)
	}

	s.logger.Infof("Прогон оценки %s сохранен в БД с %d кейсами", runID, len(run.Cases))

	return &EvaluationRunResponse{
		ID:           runID,
		SuiteDir:     request.SuiteDir,
		ResultsDir:   request.ResultsDir,
		IoUThreshold: threshold,
		WorstN:       worstN,
		Report:       report,
		CreatedAt:    run.CreatedAt,
	}, nil
}

// EvaluateCases прогоняет независимые кейсы пулом воркеров и сводит результаты.
// Кейсы не разделяют изменяемое состояние, поэтому обрабатываются параллельно
// без блокировок; агрегатор сортирует результаты по case_id, и отчет
// детерминирован независимо от порядка завершения воркеров.
func (s *EvaluationService) EvaluateCases(cases []fixtures.Case, threshold float64, worstN int) models.EvaluationReport {
	m := matcher.New(threshold)
	aggregator := metrics.New(worstN)

	jobs := make(chan fixtures.Case)
	results := make(chan models.CaseMetrics)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				caseMetrics, ok := s.evaluateCase(c, m, aggregator)
				if ok {
					results <- caseMetrics
				}
			}
		}()
	}

	go func() {
		for _, c := range cases {
			jobs <- c
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	collected := make([]models.CaseMetrics, 0, len(cases))
	for caseMetrics := range results {
		collected = append(collected, caseMetrics)
	}

	return aggregator.Aggregate(collected)
}

// evaluateCase оценивает один кейс. Структурный сбой предсказаний изолирован:
// кейс пропускается с предупреждением, остальные не затрагиваются.
func (s *EvaluationService) evaluateCase(c fixtures.Case, m *matcher.Matcher, aggregator *metrics.Aggregator) (models.CaseMetrics, bool) {
	rooms, report, err := s.validator.ValidateAny(c.RawPredictions)
	if err != nil {
		s.logger.Warnf("Кейс %s пропущен: %v", c.ID, err)
		return models.CaseMetrics{}, false
	}

	if len(report.Rejected) > 0 {
		s.logger.Debugf("Кейс %s: отбраковано %d из %d записей", c.ID, len(report.Rejected), report.TotalRecords)
	}

	matchSet := m.Match(rooms, c.GroundTruth)
	return aggregator.CalculateCase(c.ID, c.Category, matchSet), true
}

// GetRun получает сохраненный прогон оценки по ID
func (s *EvaluationService) GetRun(runID string) (*EvaluationRunResponse, error) {
	s.logger.Infof("Получаем прогон оценки %s из базы данных", runID)

	run, err := s.evalRepo.GetByID(runID)
	if err != nil {
		s.logger.Errorf("Ошибка получения прогона: %v", err)
		return nil, fmt.Errorf("failed to get evaluation run: %w", err)
	}

	return s.modelToResponse(run), nil
}

// ListRuns получает список прогонов с пагинацией
func (s *EvaluationService) ListRuns(page, pageSize int) (*ListRunsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	runs, total, err := s.evalRepo.List(page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation runs: %w", err)
	}

	response := &ListRunsResponse{
		Runs:  make([]EvaluationRunResponse, 0, len(runs)),
		Total: total,
		Page:  page,
		Size:  pageSize,
	}

	for _, run := range runs {
		response.Runs = append(response.Runs, *s.modelToResponse(run))
	}

	return response, nil
}

// DeleteRun удаляет прогон оценки
func (s *EvaluationService) DeleteRun(runID string) error {
	s.logger.Infof("Удаляем прогон оценки %s", runID)
	return s.evalRepo.Delete(runID)
}

// toModel преобразует отчет в модель базы данных
func (s *EvaluationService) toModel(runID string, request EvaluateRequest, threshold float64, worstN int, report models.EvaluationReport) (*model.EvaluationRun, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации отчета: %w", err)
	}

	run := &model.EvaluationRun{
		ID:                     runID,
		SuiteDir:               request.SuiteDir,
		ResultsDir:             request.ResultsDir,
		IoUThreshold:           threshold,
		WorstN:                 worstN,
		TotalCases:             report.CaseCount,
		MeanIoU:                report.MeanIoU,
		MedianIoU:              report.MedianIoU,
		MeanDetectionRate:      report.MeanDetectionRate,
		MeanFalsePositiveCount: report.MeanFalsePositiveCount,
		MeanFalseNegativeCount: report.MeanFalseNegativeCount,
		MeanPrecision:          report.MeanPrecision,
		MeanRecall:             report.MeanRecall,
		MeanF1Score:            report.MeanF1Score,
		ReportJSON:             string(reportJSON),
	}

	for _, c := range report.Cases {
		run.Cases = append(run.Cases, model.CaseResult{
			RunID:              runID,
			CaseID:             c.CaseID,
			Category:           c.Category,
			AverageIoU:         c.AverageIoU,
			DetectionRate:      c.DetectionRate,
			TruePositiveCount:  c.TruePositiveCount,
			FalsePositiveCount: c.FalsePositiveCount,
			FalseNegativeCount: c.FalseNegativeCount,
			RoomCountPredicted: c.RoomCountPredicted,
			RoomCountTruth:     c.RoomCountTruth,
			Precision:          c.Precision,
			Recall:             c.Recall,
			F1Score:            c.F1Score,
		})
	}

	return run, nil
}

// modelToResponse преобразует модель базы данных в ответ API
func (s *EvaluationService) modelToResponse(run *model.EvaluationRun) *EvaluationRunResponse {
	response := &EvaluationRunResponse{
		ID:           run.ID,
		SuiteDir:     run.SuiteDir,
		ResultsDir:   run.ResultsDir,
		IoUThreshold: run.IoUThreshold,
		WorstN:       run.WorstN,
		CreatedAt:    run.CreatedAt,
	}

	// Полный отчет хранится в JSON, чтобы не пересчитывать агрегаты из строк
	if run.ReportJSON != "" {
		if err := json.Unmarshal([]byte(run.ReportJSON), &response.Report); err != nil {
			s.logger.Warnf("Ошибка разбора сохраненного отчета %s: %v", run.ID, err)
		}
	}

	return response
}
