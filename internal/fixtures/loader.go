package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"blueprint-eval-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// manifestFileName — имя манифеста тестового набора в корне директории
const manifestFileName = "test_suite_manifest.json"

// Manifest описывает тестовый набор чертежей, сгруппированный по уровням сложности
type Manifest struct {
	Levels map[string]ManifestLevel `json:"levels"`
}

// ManifestLevel — один уровень сложности набора
type ManifestLevel struct {
	Blueprints []ManifestBlueprint `json:"blueprints"`
}

// ManifestBlueprint — запись о чертеже в манифесте
type ManifestBlueprint struct {
	ID string `json:"id"`
}

// groundTruthFile — формат файла <id>_ground_truth.json
type groundTruthFile struct {
	BlueprintID string                   `json:"blueprint_id"`
	GroundTruth []models.GroundTruthRoom `json:"ground_truth"`
}

// predictionsFile — формат файла <id>_predicted.json.
// Комнаты читаются нетипизированно: их структуру проверяет валидатор.
type predictionsFile struct {
	Rooms any `json:"rooms"`
}

// Case — один кейс оценки: эталон плюс сырые предсказания
type Case struct {
	ID             string                   // Стабильный идентификатор чертежа
	Category       string                   // Уровень сложности из манифеста
	GroundTruth    []models.GroundTruthRoom // Эталонные комнаты
	RawPredictions any                      // Нетипизированные предсказанные комнаты
}

// Loader читает тестовый набор и результаты предсказаний с диска.
// Эталонные данные поставляются извне и не изменяются ядром пайплайна.
type Loader struct {
	suiteDir   string
	resultsDir string
	logger     *logrus.Logger
}

// NewLoader создает загрузчик фикстур
func NewLoader(suiteDir, resultsDir string, logger *logrus.Logger) *Loader {
	return &Loader{
		suiteDir:   suiteDir,
		resultsDir: resultsDir,
		logger:     logger,
	}
}

// LoadSuite читает манифест и собирает кейсы оценки.
// Кейсы с отсутствующими файлами пропускаются с предупреждением:
// проблема одного чертежа не прерывает оценку остальных.
func (l *Loader) LoadSuite() ([]Case, error) {
	manifestPath := filepath.Join(l.suiteDir, manifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения манифеста %s: %w", manifestPath, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("ошибка разбора манифеста: %w", err)
	}

	// Сортируем уровни, чтобы порядок загрузки не зависел от обхода map
	levelNames := make([]string, 0, len(manifest.Levels))
	for name := range manifest.Levels {
		levelNames = append(levelNames, name)
	}
	sort.Strings(levelNames)

	var cases []Case
	for _, levelName := range levelNames {
		for _, blueprint := range manifest.Levels[levelName].Blueprints {
			c, err := l.loadCase(blueprint.ID, levelName)
			if err != nil {
				l.logger.Warnf("Кейс %s пропущен: %v", blueprint.ID, err)
				continue
			}
			cases = append(cases, *c)
		}
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("в наборе %s не найдено ни одного пригодного кейса", l.suiteDir)
	}

	l.logger.Infof("Загружено %d кейсов из набора %s", len(cases), l.suiteDir)
	return cases, nil
}

// loadCase читает эталон и предсказания одного чертежа
func (l *Loader) loadCase(blueprintID, level string) (*Case, error) {
	gtPath := filepath.Join(l.suiteDir, "ground-truth", blueprintID+"_ground_truth.json")
	gtData, err := os.ReadFile(gtPath)
	if err != nil {
		return nil, fmt.Errorf("ground truth не найден: %w", err)
	}

	var gt groundTruthFile
	if err := json.Unmarshal(gtData, &gt); err != nil {
		return nil, fmt.Errorf("ошибка разбора ground truth: %w", err)
	}

	predPath := filepath.Join(l.resultsDir, blueprintID+"_predicted.json")
	predData, err := os.ReadFile(predPath)
	if err != nil {
		return nil, fmt.Errorf("предсказания не найдены: %w", err)
	}

	var pred predictionsFile
	if err := json.Unmarshal(predData, &pred); err != nil {
		return nil, fmt.Errorf("ошибка разбора предсказаний: %w", err)
	}

	return &Case{
		ID:             blueprintID,
		Category:       level,
		GroundTruth:    gt.GroundTruth,
		RawPredictions: pred.Rooms,
	}, nil
}
