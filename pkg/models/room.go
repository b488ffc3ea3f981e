package models

import (
	"encoding/json"
	"fmt"
)

// CoordinateMin и CoordinateMax задают допустимый диапазон координат чертежа
const (
	CoordinateMin = 0.0
	CoordinateMax = 1000.0
)

// BoundingBox представляет прямоугольную область комнаты на чертеже.
// Неизменяемый value object: после создания всегда геометрически корректен.
type BoundingBox struct {
	XMin float64 // Левая граница
	YMin float64 // Верхняя граница
	XMax float64 // Правая граница
	YMax float64 // Нижняя граница
}

// NewBoundingBox создает BoundingBox с проверкой инвариантов
func NewBoundingBox(xMin, yMin, xMax, yMax float64) (BoundingBox, error) {
	for _, c := range [...]struct {
		name  string
		value float64
	}{
		{"x_min", xMin}, {"y_min", yMin}, {"x_max", xMax}, {"y_max", yMax},
	} {
		if c.value < CoordinateMin || c.value > CoordinateMax {
			return BoundingBox{}, fmt.Errorf("%s (%v) выходит за диапазон [%v, %v]", c.name, c.value, CoordinateMin, CoordinateMax)
		}
	}

	if xMin >= xMax {
		return BoundingBox{}, fmt.Errorf("x_min (%v) должен быть меньше x_max (%v)", xMin, xMax)
	}
	if yMin >= yMax {
		return BoundingBox{}, fmt.Errorf("y_min (%v) должен быть меньше y_max (%v)", yMin, yMax)
	}

	return BoundingBox{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax}, nil
}

// BoundingBoxFromSlice создает BoundingBox из массива [x_min, y_min, x_max, y_max]
func BoundingBoxFromSlice(coords []float64) (BoundingBox, error) {
	if len(coords) != 4 {
		return BoundingBox{}, fmt.Errorf("ожидалось 4 координаты, получено %d", len(coords))
	}
	return NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
}

// Width возвращает ширину области
func (b BoundingBox) Width() float64 {
	return b.XMax - b.XMin
}

// Height возвращает высоту области
func (b BoundingBox) Height() float64 {
	return b.YMax - b.YMin
}

// Area возвращает площадь области
func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// ToSlice возвращает представление [x_min, y_min, x_max, y_max]
func (b BoundingBox) ToSlice() []float64 {
	return []float64{b.XMin, b.YMin, b.XMax, b.YMax}
}

// MarshalJSON сериализует BoundingBox как массив из 4 чисел
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.XMin, b.YMin, b.XMax, b.YMax})
}

// UnmarshalJSON десериализует BoundingBox из массива из 4 чисел с проверкой инвариантов
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("bounding_box должен быть массивом чисел: %w", err)
	}

	box, err := BoundingBoxFromSlice(coords)
	if err != nil {
		return err
	}

	*b = box
	return nil
}

// Room представляет предсказанную моделью комнату.
// Создается только валидатором, поэтому всегда содержит корректную геометрию
// и confidence в диапазоне [0, 1].
type Room struct {
	ID          string      `json:"id"`           // Уникальный идентификатор в рамках одного ответа
	BoundingBox BoundingBox `json:"bounding_box"` // Границы комнаты [x_min, y_min, x_max, y_max]
	NameHint    string      `json:"-"`            // Опциональная метка комнаты (например, "Kitchen")
	Confidence  float64     `json:"confidence"`   // Производная оценка доверия [0, 1]
}

// roomJSON — wire-представление комнаты: name_hint сериализуется как null, если метки нет
type roomJSON struct {
	ID          string      `json:"id"`
	BoundingBox BoundingBox `json:"bounding_box"`
	NameHint    *string     `json:"name_hint"`
	Confidence  float64     `json:"confidence"`
}

// MarshalJSON сериализует Room в контрактный формат API
func (r Room) MarshalJSON() ([]byte, error) {
	out := roomJSON{
		ID:          r.ID,
		BoundingBox: r.BoundingBox,
		Confidence:  r.Confidence,
	}
	if r.NameHint != "" {
		out.NameHint = &r.NameHint
	}
	return json.Marshal(out)
}

// UnmarshalJSON десериализует Room из контрактного формата API
func (r *Room) UnmarshalJSON(data []byte) error {
	var in roomJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.ID = in.ID
	r.BoundingBox = in.BoundingBox
	r.Confidence = in.Confidence
	r.NameHint = ""
	if in.NameHint != nil {
		r.NameHint = *in.NameHint
	}
	return nil
}

// GroundTruthRoom представляет эталонную комнату из ground truth набора.
// Поставляется внешним загрузчиком фикстур и никогда не изменяется ядром.
type GroundTruthRoom struct {
	ID          string      `json:"id"`                  // Идентификатор эталонной комнаты
	BoundingBox BoundingBox `json:"bounding_box"`        // Эталонные границы комнаты
	NameHint    string      `json:"name_hint,omitempty"` // Опциональная метка комнаты
}
