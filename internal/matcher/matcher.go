package matcher

import (
	"math"
	"sort"

	"blueprint-eval-go/pkg/models"
)

// DefaultIoUThreshold — порог IoU по умолчанию для признания пары совпадением
const DefaultIoUThreshold = 0.5

// Matcher сопоставляет предсказанные комнаты с эталонными по геометрическому
// перекрытию. Жадное назначение по максимальному IoU: приближение оптимального
// паросочетания, выбранное ради детерминизма и простоты — количество комнат
// на кейс исчисляется единицами.
type Matcher struct {
	threshold float64
}

// New создает matcher с заданным порогом IoU.
// Неположительный порог заменяется значением по умолчанию.
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultIoUThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold возвращает настроенный порог IoU
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// IoU вычисляет Intersection over Union двух прямоугольников.
// Результат всегда в [0, 1]; при нулевом объединении возвращается 0.
func IoU(a, b models.BoundingBox) float64 {
	interWidth := math.Min(a.XMax, b.XMax) - math.Max(a.XMin, b.XMin)
	interHeight := math.Min(a.YMax, b.YMax) - math.Max(a.YMin, b.YMin)

	if interWidth <= 0 || interHeight <= 0 {
		return 0
	}

	intersection := interWidth * interHeight
	union := a.Area() + b.Area() - intersection

	if union == 0 {
		return 0
	}

	return intersection / union
}

// candidatePair — пара (предсказание, эталон) с IoU не ниже порога
type candidatePair struct {
	predIdx  int
	truthIdx int
	iou      float64
}

// Match сопоставляет предсказанные комнаты одного кейса с эталонными.
// Каждая комната попадает ровно в один исход: TruePositive, FalsePositive
// или FalseNegative. Результат детерминирован: пары обходятся по убыванию IoU,
// при равенстве — по возрастанию id предсказания, затем id эталона.
func (m *Matcher) Match(predicted []models.Room, groundTruth []models.GroundTruthRoom) models.MatchSet {
	// 1. Полная матрица пар с IoU не ниже порога
	pairs := make([]candidatePair, 0, len(predicted)*len(groundTruth))
	for pi, pred := range predicted {
		for ti, truth := range groundTruth {
			iou := IoU(pred.BoundingBox, truth.BoundingBox)
			if iou >= m.threshold {
				pairs = append(pairs, candidatePair{predIdx: pi, truthIdx: ti, iou: iou})
			}
		}
	}

	// 2. Сортировка: по убыванию IoU, тай-брейк по id — полный порядок
	// гарантирует воспроизводимость результата
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.iou != b.iou {
			return a.iou > b.iou
		}
		if predicted[a.predIdx].ID != predicted[b.predIdx].ID {
			return predicted[a.predIdx].ID < predicted[b.predIdx].ID
		}
		return groundTruth[a.truthIdx].ID < groundTruth[b.truthIdx].ID
	})

	// 3. Жадный обход: принимаем пару, если обе стороны еще свободны
	predClaimed := make([]bool, len(predicted))
	truthClaimed := make([]bool, len(groundTruth))

	result := models.MatchSet{
		TruePositives:  make([]models.TruePositive, 0, len(pairs)),
		FalsePositives: make([]models.Room, 0),
		FalseNegatives: make([]models.GroundTruthRoom, 0),
	}

	for _, pair := range pairs {
		if predClaimed[pair.predIdx] || truthClaimed[pair.truthIdx] {
			continue
		}
		predClaimed[pair.predIdx] = true
		truthClaimed[pair.truthIdx] = true

		result.TruePositives = append(result.TruePositives, models.TruePositive{
			Predicted:   predicted[pair.predIdx],
			GroundTruth: groundTruth[pair.truthIdx],
			IoU:         pair.iou,
		})
	}

	// 4. Незанятые стороны становятся false positives / false negatives
	for pi, pred := range predicted {
		if !predClaimed[pi] {
			result.FalsePositives = append(result.FalsePositives, pred)
		}
	}
	for ti, truth := range groundTruth {
		if !truthClaimed[ti] {
			result.FalseNegatives = append(result.FalseNegatives, truth)
		}
	}

	return result
}
