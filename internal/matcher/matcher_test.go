package matcher

import (
	"math"
	"testing"

	"blueprint-eval-go/pkg/models"
)

func box(t *testing.T, xMin, yMin, xMax, yMax float64) models.BoundingBox {
	t.Helper()
	b, err := models.NewBoundingBox(xMin, yMin, xMax, yMax)
	if err != nil {
		t.Fatalf("некорректный box в тесте: %v", err)
	}
	return b
}

func room(t *testing.T, id string, xMin, yMin, xMax, yMax float64) models.Room {
	t.Helper()
	return models.Room{ID: id, BoundingBox: box(t, xMin, yMin, xMax, yMax), Confidence: 1.0}
}

func truthRoom(t *testing.T, id string, xMin, yMin, xMax, yMax float64) models.GroundTruthRoom {
	t.Helper()
	return models.GroundTruthRoom{ID: id, BoundingBox: box(t, xMin, yMin, xMax, yMax)}
}

func TestIoU_Identity(t *testing.T) {
	b := box(t, 100, 100, 500, 600)
	if iou := IoU(b, b); iou != 1.0 {
		t.Errorf("IoU(b, b) должен быть 1.0, получен %v", iou)
	}
}

func TestIoU_Symmetry(t *testing.T) {
	a := box(t, 0, 0, 300, 300)
	b := box(t, 150, 150, 450, 450)

	if IoU(a, b) != IoU(b, a) {
		t.Errorf("IoU не симметричен: %v != %v", IoU(a, b), IoU(b, a))
	}
}

func TestIoU_Range(t *testing.T) {
	pairs := [][2]models.BoundingBox{
		{box(t, 0, 0, 100, 100), box(t, 50, 50, 150, 150)},
		{box(t, 0, 0, 1000, 1000), box(t, 999, 999, 1000, 1000)},
		{box(t, 10, 10, 20, 20), box(t, 10, 10, 20, 20)},
	}

	for _, pair := range pairs {
		iou := IoU(pair[0], pair[1])
		if iou < 0 || iou > 1 {
			t.Errorf("IoU вне диапазона [0, 1]: %v", iou)
		}
	}
}

func TestIoU_DisjointBoxes(t *testing.T) {
	a := box(t, 0, 0, 100, 100)
	b := box(t, 200, 200, 300, 300)

	if iou := IoU(a, b); iou != 0 {
		t.Errorf("IoU непересекающихся box должен быть 0, получен %v", iou)
	}

	// Касание ребрами — тоже нулевое пересечение
	c := box(t, 100, 0, 200, 100)
	if iou := IoU(a, c); iou != 0 {
		t.Errorf("IoU касающихся box должен быть 0, получен %v", iou)
	}
}

func TestIoU_KnownOverlap(t *testing.T) {
	// Пересечение 50x50=2500, объединение 10000+10000-2500=17500
	a := box(t, 0, 0, 100, 100)
	b := box(t, 50, 50, 150, 150)

	expected := 2500.0 / 17500.0
	if iou := IoU(a, b); math.Abs(iou-expected) > 1e-9 {
		t.Errorf("ожидался IoU %v, получен %v", expected, iou)
	}
}

func TestMatch_PerfectMatch(t *testing.T) {
	m := New(0.5)

	set := m.Match(
		[]models.Room{room(t, "p1", 100, 100, 500, 600)},
		[]models.GroundTruthRoom{truthRoom(t, "g1", 100, 100, 500, 600)},
	)

	if len(set.TruePositives) != 1 || len(set.FalsePositives) != 0 || len(set.FalseNegatives) != 0 {
		t.Fatalf("ожидался ровно один true positive: %+v", set)
	}
	if set.TruePositives[0].IoU != 1.0 {
		t.Errorf("ожидался IoU 1.0, получен %v", set.TruePositives[0].IoU)
	}
}

func TestMatch_NoOverlap(t *testing.T) {
	m := New(0.5)

	set := m.Match(
		[]models.Room{room(t, "p1", 0, 0, 100, 100)},
		[]models.GroundTruthRoom{truthRoom(t, "g1", 200, 200, 300, 300)},
	)

	if len(set.TruePositives) != 0 {
		t.Errorf("совпадений быть не должно")
	}
	if len(set.FalsePositives) != 1 || len(set.FalseNegatives) != 1 {
		t.Errorf("ожидался один false positive и один false negative: %+v", set)
	}
}

func TestMatch_NoDoubleCounting(t *testing.T) {
	m := New(0.5)

	// Два предсказания претендуют на один эталон
	predicted := []models.Room{
		room(t, "p1", 100, 100, 500, 500),
		room(t, "p2", 110, 110, 510, 510),
	}
	groundTruth := []models.GroundTruthRoom{
		truthRoom(t, "g1", 100, 100, 500, 500),
	}

	set := m.Match(predicted, groundTruth)

	tp, fp, fn := len(set.TruePositives), len(set.FalsePositives), len(set.FalseNegatives)
	if tp+fp != len(predicted) {
		t.Errorf("инвариант |TP|+|FP| == |predicted| нарушен: %d+%d != %d", tp, fp, len(predicted))
	}
	if tp+fn != len(groundTruth) {
		t.Errorf("инвариант |TP|+|FN| == |truth| нарушен: %d+%d != %d", tp, fn, len(groundTruth))
	}

	// Лучшее перекрытие выигрывает: p1 совпадает с g1 точно
	if set.TruePositives[0].Predicted.ID != "p1" {
		t.Errorf("ожидалось совпадение p1, получено %s", set.TruePositives[0].Predicted.ID)
	}
}

func TestMatch_PartitionInvariant(t *testing.T) {
	m := New(0.5)

	predicted := []models.Room{
		room(t, "p1", 0, 0, 200, 200),
		room(t, "p2", 300, 300, 500, 500),
		room(t, "p3", 700, 700, 900, 900),
	}
	groundTruth := []models.GroundTruthRoom{
		truthRoom(t, "g1", 10, 10, 210, 210),
		truthRoom(t, "g2", 600, 600, 650, 650),
	}

	set := m.Match(predicted, groundTruth)

	// Каждая комната встречается ровно один раз
	seen := make(map[string]int)
	for _, tp := range set.TruePositives {
		seen["p:"+tp.Predicted.ID]++
		seen["g:"+tp.GroundTruth.ID]++
	}
	for _, fp := range set.FalsePositives {
		seen["p:"+fp.ID]++
	}
	for _, fn := range set.FalseNegatives {
		seen["g:"+fn.ID]++
	}

	for _, p := range predicted {
		if seen["p:"+p.ID] != 1 {
			t.Errorf("комната %s встречается %d раз", p.ID, seen["p:"+p.ID])
		}
	}
	for _, g := range groundTruth {
		if seen["g:"+g.ID] != 1 {
			t.Errorf("эталон %s встречается %d раз", g.ID, seen["g:"+g.ID])
		}
	}
}

func TestMatch_DeterministicTieBreak(t *testing.T) {
	m := New(0.5)

	// Два одинаковых предсказания: при равном IoU выигрывает меньший id
	predicted := []models.Room{
		room(t, "p2", 100, 100, 500, 500),
		room(t, "p1", 100, 100, 500, 500),
	}
	groundTruth := []models.GroundTruthRoom{
		truthRoom(t, "g1", 100, 100, 500, 500),
	}

	for i := 0; i < 10; i++ {
		set := m.Match(predicted, groundTruth)
		if len(set.TruePositives) != 1 || set.TruePositives[0].Predicted.ID != "p1" {
			t.Fatalf("тай-брейк не детерминирован: %+v", set.TruePositives)
		}
	}
}

func TestMatch_BelowThreshold(t *testing.T) {
	m := New(0.5)

	// Перекрытие есть, но IoU ниже порога
	set := m.Match(
		[]models.Room{room(t, "p1", 0, 0, 100, 100)},
		[]models.GroundTruthRoom{truthRoom(t, "g1", 90, 90, 190, 190)},
	)

	if len(set.TruePositives) != 0 {
		t.Errorf("пара ниже порога не должна считаться совпадением")
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := New(0.5)

	// Нет предсказаний — все эталоны false negatives
	set := m.Match(nil, []models.GroundTruthRoom{truthRoom(t, "g1", 0, 0, 100, 100)})
	if len(set.FalseNegatives) != 1 || len(set.TruePositives) != 0 || len(set.FalsePositives) != 0 {
		t.Errorf("неожиданный результат для пустых предсказаний: %+v", set)
	}

	// Нет эталонов — все предсказания false positives
	set = m.Match([]models.Room{room(t, "p1", 0, 0, 100, 100)}, nil)
	if len(set.FalsePositives) != 1 || len(set.TruePositives) != 0 || len(set.FalseNegatives) != 0 {
		t.Errorf("неожиданный результат для пустого эталона: %+v", set)
	}

	// Оба пусты — пустой результат, не ошибка
	set = m.Match(nil, nil)
	if len(set.TruePositives)+len(set.FalsePositives)+len(set.FalseNegatives) != 0 {
		t.Errorf("ожидался пустой результат: %+v", set)
	}
}

func TestNew_DefaultThreshold(t *testing.T) {
	if m := New(0); m.Threshold() != DefaultIoUThreshold {
		t.Errorf("неположительный порог должен заменяться на %v", DefaultIoUThreshold)
	}
	if m := New(0.75); m.Threshold() != 0.75 {
		t.Errorf("порог не сохранен")
	}
}
