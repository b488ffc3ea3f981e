package metrics

import (
	"sort"

	"blueprint-eval-go/pkg/models"
)

// DefaultWorstN — размер списка худших кейсов по умолчанию
const DefaultWorstN = 5

// Aggregator сводит результаты сопоставления в пер-кейсовые и корпусные
// метрики точности. Все вычисления тотальны: для корректного входа
// агрегатор не возвращает ошибок.
type Aggregator struct {
	worstN int
}

// New создает агрегатор. Неположительный worstN заменяется значением по умолчанию.
func New(worstN int) *Aggregator {
	if worstN <= 0 {
		worstN = DefaultWorstN
	}
	return &Aggregator{worstN: worstN}
}

// CalculateCase вычисляет метрики одного кейса по результату сопоставления
func (a *Aggregator) CalculateCase(caseID, category string, set models.MatchSet) models.CaseMetrics {
	tp := len(set.TruePositives)
	fp := len(set.FalsePositives)
	fn := len(set.FalseNegatives)

	truthCount := tp + fn
	predictedCount := tp + fp

	var avgIoU float64
	if tp > 0 {
		sum := 0.0
		for _, match := range set.TruePositives {
			sum += match.IoU
		}
		avgIoU = sum / float64(tp)
	}

	var detectionRate float64
	if truthCount > 0 {
		detectionRate = float64(tp) / float64(truthCount)
	}

	var precision float64
	if predictedCount > 0 {
		precision = float64(tp) / float64(predictedCount)
	}

	recall := detectionRate

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return models.CaseMetrics{
		CaseID:             caseID,
		Category:           category,
		AverageIoU:         avgIoU,
		DetectionRate:      detectionRate,
		TruePositiveCount:  tp,
		FalsePositiveCount: fp,
		FalseNegativeCount: fn,
		RoomCountPredicted: predictedCount,
		RoomCountTruth:     truthCount,
		Precision:          precision,
		Recall:             recall,
		F1Score:            f1,
	}
}

// Aggregate сводит метрики корпуса кейсов в итоговый отчет.
// Кейсы предварительно сортируются по case_id, поэтому отчет детерминирован
// независимо от порядка поступления результатов.
func (a *Aggregator) Aggregate(cases []models.CaseMetrics) models.EvaluationReport {
	sorted := make([]models.CaseMetrics, len(cases))
	copy(sorted, cases)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CaseID < sorted[j].CaseID
	})

	report := models.EvaluationReport{
		AggregateMetrics: aggregate(sorted),
		PerCategory:      perCategory(sorted),
		WorstCases:       a.worstCases(sorted),
		Cases:            sorted,
	}

	return report
}

// aggregate вычисляет средние и медианы по набору кейсов.
// Кейсы без true positives исключаются из статистики IoU, но учитываются
// во всех остальных полях.
func aggregate(cases []models.CaseMetrics) models.AggregateMetrics {
	agg := models.AggregateMetrics{CaseCount: len(cases)}
	if len(cases) == 0 {
		return agg
	}

	var ious, detectionRates []float64
	var fpSum, fnSum, precisionSum, recallSum, f1Sum float64

	for _, c := range cases {
		if c.TruePositiveCount > 0 {
			ious = append(ious, c.AverageIoU)
		}
		detectionRates = append(detectionRates, c.DetectionRate)
		fpSum += float64(c.FalsePositiveCount)
		fnSum += float64(c.FalseNegativeCount)
		precisionSum += c.Precision
		recallSum += c.Recall
		f1Sum += c.F1Score
	}

	n := float64(len(cases))

	agg.MeanIoU = mean(ious)
	agg.MedianIoU = median(ious)
	agg.MeanDetectionRate = mean(detectionRates)
	agg.MedianDetectionRate = median(detectionRates)
	agg.MeanFalsePositiveCount = fpSum / n
	agg.MeanFalseNegativeCount = fnSum / n
	agg.MeanPrecision = precisionSum / n
	agg.MeanRecall = recallSum / n
	agg.MeanF1Score = f1Sum / n

	return agg
}

// perCategory строит разбивку агрегатов по категориям,
// сохраняя порядок первого появления метки
func perCategory(cases []models.CaseMetrics) models.PerCategory {
	grouped := make(map[string][]models.CaseMetrics)
	var order []string

	for _, c := range cases {
		if c.Category == "" {
			continue
		}
		if _, seen := grouped[c.Category]; !seen {
			order = append(order, c.Category)
		}
		grouped[c.Category] = append(grouped[c.Category], c)
	}

	result := make(models.PerCategory, 0, len(order))
	for _, label := range order {
		result = append(result, models.CategoryAggregate{
			Label:   label,
			Metrics: aggregate(grouped[label]),
		})
	}

	return result
}

// worstCases возвращает N худших кейсов: по возрастанию detection rate,
// тай-брейк по возрастанию среднего IoU, затем по case_id
func (a *Aggregator) worstCases(cases []models.CaseMetrics) []models.WorstCase {
	ranked := make([]models.CaseMetrics, len(cases))
	copy(ranked, cases)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DetectionRate != ranked[j].DetectionRate {
			return ranked[i].DetectionRate < ranked[j].DetectionRate
		}
		if ranked[i].AverageIoU != ranked[j].AverageIoU {
			return ranked[i].AverageIoU < ranked[j].AverageIoU
		}
		return ranked[i].CaseID < ranked[j].CaseID
	})

	limit := a.worstN
	if limit > len(ranked) {
		limit = len(ranked)
	}

	worst := make([]models.WorstCase, 0, limit)
	for _, c := range ranked[:limit] {
		worst = append(worst, models.WorstCase{
			CaseID:        c.CaseID,
			DetectionRate: c.DetectionRate,
			AverageIoU:    c.AverageIoU,
		})
	}

	return worst
}

// mean возвращает среднее арифметическое (0 для пустого набора)
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median возвращает медиану (0 для пустого набора)
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
