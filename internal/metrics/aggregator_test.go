package metrics

import (
	"math"
	"testing"

	"blueprint-eval-go/pkg/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func tpMatch(iou float64) models.TruePositive {
	return models.TruePositive{IoU: iou}
}

func caseMetrics(id, category string, detectionRate, avgIoU float64, tp int) models.CaseMetrics {
	return models.CaseMetrics{
		CaseID:            id,
		Category:          category,
		DetectionRate:     detectionRate,
		AverageIoU:        avgIoU,
		TruePositiveCount: tp,
		Precision:         detectionRate,
		Recall:            detectionRate,
		F1Score:           detectionRate,
	}
}

func TestCalculateCase_Basic(t *testing.T) {
	a := New(DefaultWorstN)

	set := models.MatchSet{
		TruePositives:  []models.TruePositive{tpMatch(0.9), tpMatch(0.7)},
		FalsePositives: []models.Room{{ID: "fp1"}},
		FalseNegatives: []models.GroundTruthRoom{{ID: "fn1"}, {ID: "fn2"}},
	}

	m := a.CalculateCase("case1", "level_1", set)

	if m.CaseID != "case1" || m.Category != "level_1" {
		t.Errorf("идентификаторы кейса потеряны: %+v", m)
	}
	if !almostEqual(m.AverageIoU, 0.8) {
		t.Errorf("ожидался средний IoU 0.8, получен %v", m.AverageIoU)
	}
	// 2 совпадения из 4 эталонных комнат
	if !almostEqual(m.DetectionRate, 0.5) {
		t.Errorf("ожидался detection rate 0.5, получен %v", m.DetectionRate)
	}
	if m.RoomCountPredicted != 3 || m.RoomCountTruth != 4 {
		t.Errorf("неожиданные количества комнат: %+v", m)
	}
	// precision 2/3, recall 1/2, f1 = 2*p*r/(p+r)
	if !almostEqual(m.Precision, 2.0/3.0) || !almostEqual(m.Recall, 0.5) {
		t.Errorf("неожиданные precision/recall: %v, %v", m.Precision, m.Recall)
	}
	expectedF1 := 2 * (2.0 / 3.0) * 0.5 / (2.0/3.0 + 0.5)
	if !almostEqual(m.F1Score, expectedF1) {
		t.Errorf("ожидался F1 %v, получен %v", expectedF1, m.F1Score)
	}
}

func TestCalculateCase_EmptyMatchSet(t *testing.T) {
	a := New(DefaultWorstN)

	m := a.CalculateCase("empty", "", models.MatchSet{})

	if m.AverageIoU != 0 || m.DetectionRate != 0 || m.Precision != 0 || m.F1Score != 0 {
		t.Errorf("метрики пустого кейса должны быть нулевыми: %+v", m)
	}
}

func TestAggregate_MeanDetectionRate(t *testing.T) {
	a := New(DefaultWorstN)

	// Два кейса с detection rate 1.0 и 0.5 дают среднее 0.75
	report := a.Aggregate([]models.CaseMetrics{
		caseMetrics("c1", "", 1.0, 0.9, 1),
		caseMetrics("c2", "", 0.5, 0.8, 1),
	})

	if !almostEqual(report.MeanDetectionRate, 0.75) {
		t.Errorf("ожидался mean detection rate 0.75, получен %v", report.MeanDetectionRate)
	}
	if report.CaseCount != 2 {
		t.Errorf("ожидалось 2 кейса, получено %d", report.CaseCount)
	}
}

func TestAggregate_ExcludesNoTPCasesFromIoU(t *testing.T) {
	a := New(DefaultWorstN)

	// Кейс без true positives не должен тянуть средний IoU к нулю
	report := a.Aggregate([]models.CaseMetrics{
		caseMetrics("c1", "", 1.0, 0.8, 2),
		caseMetrics("c2", "", 0.0, 0.0, 0),
	})

	if !almostEqual(report.MeanIoU, 0.8) {
		t.Errorf("кейс без TP должен исключаться из среднего IoU: %v", report.MeanIoU)
	}
	// Но в detection rate он учитывается
	if !almostEqual(report.MeanDetectionRate, 0.5) {
		t.Errorf("кейс без TP должен учитываться в detection rate: %v", report.MeanDetectionRate)
	}
}

func TestAggregate_Median(t *testing.T) {
	a := New(DefaultWorstN)

	report := a.Aggregate([]models.CaseMetrics{
		caseMetrics("c1", "", 0.2, 0.3, 1),
		caseMetrics("c2", "", 0.4, 0.5, 1),
		caseMetrics("c3", "", 1.0, 0.9, 1),
	})

	if !almostEqual(report.MedianDetectionRate, 0.4) {
		t.Errorf("ожидалась медиана 0.4, получена %v", report.MedianDetectionRate)
	}
	if !almostEqual(report.MedianIoU, 0.5) {
		t.Errorf("ожидалась медиана IoU 0.5, получена %v", report.MedianIoU)
	}

	// Четное количество — среднее двух центральных
	report = a.Aggregate([]models.CaseMetrics{
		caseMetrics("c1", "", 0.2, 0.3, 1),
		caseMetrics("c2", "", 0.4, 0.5, 1),
	})
	if !almostEqual(report.MedianDetectionRate, 0.3) {
		t.Errorf("ожидалась медиана 0.3, получена %v", report.MedianDetectionRate)
	}
}

func TestAggregate_PerCategoryPreservesOrder(t *testing.T) {
	a := New(DefaultWorstN)

	report := a.Aggregate([]models.CaseMetrics{
		caseMetrics("a1", "level_1", 1.0, 0.9, 1),
		caseMetrics("b1", "level_2", 0.5, 0.7, 1),
		caseMetrics("a2", "level_1", 0.8, 0.8, 1),
	})

	if len(report.PerCategory) != 2 {
		t.Fatalf("ожидалось 2 категории, получено %d", len(report.PerCategory))
	}
	if report.PerCategory[0].Label != "level_1" || report.PerCategory[1].Label != "level_2" {
		t.Errorf("порядок категорий нарушен: %+v", report.PerCategory)
	}
	if !almostEqual(report.PerCategory[0].Metrics.MeanDetectionRate, 0.9) {
		t.Errorf("неожиданный агрегат категории: %v", report.PerCategory[0].Metrics.MeanDetectionRate)
	}
}

func TestAggregate_WorstCases(t *testing.T) {
	a := New(2)

	report := a.Aggregate([]models.CaseMetrics{
		caseMetrics("good", "", 1.0, 0.95, 2),
		caseMetrics("bad", "", 0.1, 0.6, 1),
		caseMetrics("worst", "", 0.0, 0.0, 0),
		caseMetrics("mediocre", "", 0.5, 0.7, 1),
	})

	if len(report.WorstCases) != 2 {
		t.Fatalf("ожидалось 2 худших кейса, получено %d", len(report.WorstCases))
	}
	if report.WorstCases[0].CaseID != "worst" || report.WorstCases[1].CaseID != "bad" {
		t.Errorf("неожиданный порядок худших кейсов: %+v", report.WorstCases)
	}
}

func TestAggregate_WorstCasesTieBreak(t *testing.T) {
	a := New(3)

	// Одинаковый detection rate — ранжируем по среднему IoU
	report := a.Aggregate([]models.CaseMetrics{
		caseMetrics("c_high_iou", "", 0.5, 0.9, 1),
		caseMetrics("c_low_iou", "", 0.5, 0.4, 1),
	})

	if report.WorstCases[0].CaseID != "c_low_iou" {
		t.Errorf("при равном detection rate первым должен идти меньший IoU: %+v", report.WorstCases)
	}
}

func TestAggregate_SortsCasesByID(t *testing.T) {
	a := New(DefaultWorstN)

	// Порядок поступления не влияет на отчет
	report := a.Aggregate([]models.CaseMetrics{
		caseMetrics("c3", "", 0.3, 0.3, 1),
		caseMetrics("c1", "", 0.1, 0.1, 1),
		caseMetrics("c2", "", 0.2, 0.2, 1),
	})

	ids := []string{report.Cases[0].CaseID, report.Cases[1].CaseID, report.Cases[2].CaseID}
	if ids[0] != "c1" || ids[1] != "c2" || ids[2] != "c3" {
		t.Errorf("кейсы должны быть отсортированы по case_id: %v", ids)
	}
}

func TestAggregate_Empty(t *testing.T) {
	a := New(DefaultWorstN)

	report := a.Aggregate(nil)
	if report.CaseCount != 0 || report.MeanIoU != 0 || len(report.WorstCases) != 0 {
		t.Errorf("пустой корпус должен давать нулевой отчет: %+v", report)
	}
}
