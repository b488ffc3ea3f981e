package models

import (
	"bytes"
	"encoding/json"
)

// TruePositive — предсказанная комната, сопоставленная с эталонной при IoU >= порога
type TruePositive struct {
	Predicted   Room            `json:"predicted"`    // Предсказанная комната
	GroundTruth GroundTruthRoom `json:"ground_truth"` // Эталонная комната
	IoU         float64         `json:"iou"`          // Значение IoU пары
}

// MatchSet содержит полный результат сопоставления одного кейса.
// Инвариант: каждая предсказанная и каждая эталонная комната встречается
// ровно в одном исходе, двойной учет исключен.
type MatchSet struct {
	TruePositives  []TruePositive    `json:"true_positives"`  // Сопоставленные пары
	FalsePositives []Room            `json:"false_positives"` // Предсказания без эталонной пары
	FalseNegatives []GroundTruthRoom `json:"false_negatives"` // Эталонные комнаты без предсказания
}

// CaseMetrics — метрики точности одного чертежа
type CaseMetrics struct {
	CaseID             string  `json:"case_id"`              // Стабильный идентификатор кейса
	Category           string  `json:"category,omitempty"`   // Внешняя метка сложности/категории
	AverageIoU         float64 `json:"average_iou"`          // Средний IoU по true positives (0, если их нет)
	DetectionRate      float64 `json:"detection_rate"`       // Доля найденных эталонных комнат
	TruePositiveCount  int     `json:"true_positive_count"`  // Количество совпадений
	FalsePositiveCount int     `json:"false_positive_count"` // Количество ложных срабатываний
	FalseNegativeCount int     `json:"false_negative_count"` // Количество пропущенных комнат
	RoomCountPredicted int     `json:"room_count_predicted"` // Количество предсказанных комнат
	RoomCountTruth     int     `json:"room_count_truth"`     // Количество эталонных комнат
	Precision          float64 `json:"precision"`            // Точность
	Recall             float64 `json:"recall"`               // Полнота
	F1Score            float64 `json:"f1_score"`             // F1-мера
}

// AggregateMetrics — агрегированные метрики по корпусу кейсов.
// Кейсы без true positives исключаются из статистики IoU, но учитываются
// во всех остальных полях.
type AggregateMetrics struct {
	CaseCount              int     `json:"case_count"`                // Количество кейсов в агрегате
	MeanIoU                float64 `json:"mean_iou"`                  // Средний IoU
	MedianIoU              float64 `json:"median_iou"`                // Медианный IoU
	MeanDetectionRate      float64 `json:"mean_detection_rate"`       // Средняя доля найденных комнат
	MedianDetectionRate    float64 `json:"median_detection_rate"`     // Медианная доля найденных комнат
	MeanFalsePositiveCount float64 `json:"mean_false_positive_count"` // Среднее число ложных срабатываний
	MeanFalseNegativeCount float64 `json:"mean_false_negative_count"` // Среднее число пропусков
	MeanPrecision          float64 `json:"mean_precision"`            // Средняя точность
	MeanRecall             float64 `json:"mean_recall"`               // Средняя полнота
	MeanF1Score            float64 `json:"mean_f1_score"`             // Средняя F1-мера
}

// CategoryAggregate — агрегат по одной категории кейсов
type CategoryAggregate struct {
	Label   string           // Метка категории
	Metrics AggregateMetrics // Агрегированные метрики категории
}

// PerCategory — разбивка агрегатов по категориям с сохранением порядка появления меток
type PerCategory []CategoryAggregate

// MarshalJSON сериализует разбивку как JSON-объект {метка: метрики},
// сохраняя порядок появления категорий
func (p PerCategory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, err := json.Marshal(entry.Label)
		if err != nil {
			return nil, err
		}
		metrics, err := json.Marshal(entry.Metrics)
		if err != nil {
			return nil, err
		}
		buf.Write(label)
		buf.WriteByte(':')
		buf.Write(metrics)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает разбивку из JSON-объекта, сохраняя порядок ключей
func (p *PerCategory) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	// Открывающая скобка объекта
	if _, err := dec.Token(); err != nil {
		return err
	}

	result := PerCategory{}
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := token.(string)

		var metrics AggregateMetrics
		if err := dec.Decode(&metrics); err != nil {
			return err
		}

		result = append(result, CategoryAggregate{Label: label, Metrics: metrics})
	}

	*p = result
	return nil
}

// WorstCase — кейс из worst-N списка для разбора
type WorstCase struct {
	CaseID        string  `json:"case_id"`        // Идентификатор кейса
	DetectionRate float64 `json:"detection_rate"` // Доля найденных комнат
	AverageIoU    float64 `json:"average_iou"`    // Средний IoU по совпадениям
}

// EvaluationReport — итоговый отчет batch-оценки по корпусу чертежей
type EvaluationReport struct {
	AggregateMetrics               // Агрегат по всем кейсам (поля разворачиваются на верхний уровень)
	PerCategory      PerCategory   `json:"per_category"` // Разбивка по категориям
	WorstCases       []WorstCase   `json:"worst_cases"`  // Худшие кейсы по detection rate
	Cases            []CaseMetrics `json:"cases"`        // Пер-кейсовые метрики (отсортированы по case_id)
}
