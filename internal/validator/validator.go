package validator

import (
	"encoding/json"
	"fmt"
	"strconv"

	"blueprint-eval-go/internal/extractor"
	"blueprint-eval-go/pkg/models"
)

// Значения по умолчанию для эвристики confidence.
// Это настраиваемая политика, а не физическая величина: константы
// переопределяются через конфигурацию сервиса.
const (
	DefaultMissingNamePenalty = 0.2    // Штраф за отсутствие name_hint
	DefaultSmallAreaPenalty   = 0.1    // Штраф за слишком маленькую площадь
	DefaultMinArea            = 2500.0 // Минимальная площадь (50x50 в сетке 0-1000)
)

// ValidationError означает структурный сбой входных данных: вход валидатора
// не является последовательностью записей. Фатальна только для одного кейса,
// остальные кейсы batch-прогона не затрагиваются.
type ValidationError struct {
	Reason string // Причина структурного сбоя
}

// Error реализует интерфейс error
func (e *ValidationError) Error() string {
	return "структурная ошибка входных данных: " + e.Reason
}

// Config задает константы эвристики confidence
type Config struct {
	MissingNamePenalty float64 // Штраф за отсутствие метки комнаты
	SmallAreaPenalty   float64 // Штраф за площадь ниже MinArea
	MinArea            float64 // Порог минимальной площади
}

// DefaultConfig возвращает конфигурацию эвристики по умолчанию
func DefaultConfig() Config {
	return Config{
		MissingNamePenalty: DefaultMissingNamePenalty,
		SmallAreaPenalty:   DefaultSmallAreaPenalty,
		MinArea:            DefaultMinArea,
	}
}

// RejectedRecord описывает отбракованную запись для наблюдаемости
type RejectedRecord struct {
	Index  int    `json:"index"`        // Позиция записи во входной последовательности
	ID     string `json:"id,omitempty"` // Идентификатор записи, если он был
	Reason string `json:"reason"`       // Причина отбраковки
}

// Report — сводка одного прогона валидации
type Report struct {
	TotalRecords int              `json:"total_records"` // Количество записей на входе
	ValidRooms   int              `json:"valid_rooms"`   // Количество построенных комнат
	Rejected     []RejectedRecord `json:"rejected"`      // Отбракованные записи с причинами
}

// Validator превращает сырые записи экстрактора в корректные комнаты.
// Плохие записи отбраковываются и подсчитываются, но не прерывают обработку:
// результат всегда валидная (возможно пустая) последовательность.
type Validator struct {
	cfg Config
}

// New создает валидатор с заданной конфигурацией эвристики
func New(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate обрабатывает последовательность записей и возвращает корректные
// комнаты вместе со сводкой отбраковки. Идемпотентна: повторная валидация
// уже валидных комнат возвращает идентичную последовательность.
func (v *Validator) Validate(records []extractor.Record) ([]models.Room, Report) {
	report := Report{TotalRecords: len(records)}
	rooms := make([]models.Room, 0, len(records))

	for i, record := range records {
		room, reason := v.validateRecord(record)
		if reason != "" {
			report.Rejected = append(report.Rejected, RejectedRecord{
				Index:  i,
				ID:     recordID(record),
				Reason: reason,
			})
			continue
		}
		rooms = append(rooms, room)
	}

	report.ValidRooms = len(rooms)
	return rooms, report
}

// ValidateAny обрабатывает произвольно декодированный JSON.
// Возвращает ValidationError, если вход вообще не является последовательностью.
func (v *Validator) ValidateAny(data any) ([]models.Room, Report, error) {
	items, ok := data.([]any)
	if !ok {
		return nil, Report{}, &ValidationError{
			Reason: fmt.Sprintf("ожидался массив записей, получен %T", data),
		}
	}

	records := make([]extractor.Record, len(items))
	for i, item := range items {
		if obj, isObj := item.(map[string]any); isObj {
			records[i] = obj
		}
	}

	rooms, report := v.Validate(records)
	return rooms, report, nil
}

// validateRecord проверяет одну запись. Возвращает комнату либо причину отбраковки.
func (v *Validator) validateRecord(record extractor.Record) (models.Room, string) {
	if record == nil {
		return models.Room{}, "запись не является объектом"
	}

	// 1. Обязательные поля: id и bounding_box из 4 элементов
	id := recordID(record)
	if id == "" {
		return models.Room{}, "отсутствует поле id"
	}

	rawBox, ok := record["bounding_box"]
	if !ok {
		return models.Room{}, "отсутствует поле bounding_box"
	}

	boxItems, ok := rawBox.([]any)
	if !ok {
		return models.Room{}, "bounding_box не является массивом"
	}
	if len(boxItems) != 4 {
		return models.Room{}, fmt.Sprintf("bounding_box должен содержать 4 координаты, получено %d", len(boxItems))
	}

	// 2. Приводим координаты к числам
	coords := make([]float64, 4)
	for i, item := range boxItems {
		value, ok := toFloat(item)
		if !ok {
			return models.Room{}, fmt.Sprintf("координата %d не является числом", i)
		}
		coords[i] = value
	}

	// 3. Зажимаем координаты в допустимый диапазон — политика восстановления,
	// слегка вышедшие за диапазон значения не повод отбрасывать запись
	for i := range coords {
		coords[i] = clamp(coords[i], models.CoordinateMin, models.CoordinateMax)
	}

	// 4. Вырожденную геометрию после зажима починить нельзя — только отбраковать
	box, err := models.BoundingBoxFromSlice(coords)
	if err != nil {
		return models.Room{}, fmt.Sprintf("вырожденная геометрия после зажима: %v", err)
	}

	// 5. Детерминированная эвристика confidence
	nameHint := recordNameHint(record)
	confidence := v.scoreConfidence(box, nameHint)

	// 6. Собираем комнату
	return models.Room{
		ID:          id,
		BoundingBox: box,
		NameHint:    nameHint,
		Confidence:  confidence,
	}, ""
}

// scoreConfidence вычисляет оценку доверия: старт с 1.0, штрафы за отсутствие
// метки и за подозрительно маленькую площадь, результат зажимается в [0, 1]
func (v *Validator) scoreConfidence(box models.BoundingBox, nameHint string) float64 {
	confidence := 1.0

	if nameHint == "" {
		confidence -= v.cfg.MissingNamePenalty
	}
	if box.Area() < v.cfg.MinArea {
		confidence -= v.cfg.SmallAreaPenalty
	}

	return clamp(confidence, 0, 1)
}

// recordID извлекает идентификатор записи. Числовые идентификаторы приводятся к строке.
func recordID(record extractor.Record) string {
	if record == nil {
		return ""
	}

	switch id := record["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'g', -1, 64)
	default:
		return ""
	}
}

// recordNameHint извлекает опциональную метку комнаты
func recordNameHint(record extractor.Record) string {
	if hint, ok := record["name_hint"].(string); ok {
		return hint
	}
	return ""
}

// toFloat приводит значение координаты к float64
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// clamp зажимает значение в диапазон [min, max]
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
