package extractor

import (
	"errors"
	"testing"
)

func TestExtract_FencedJSONBlock(t *testing.T) {
	// Типичный ответ модели: JSON в markdown-блоке с прозой вокруг
	text := "Here are the rooms:\n```json\n[{\"id\":\"r1\",\"bounding_box\":[10,10,20,20]}]\n```\nDone."

	records, err := New().Extract(text)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("ожидалась 1 запись, получено %d", len(records))
	}
	if records[0]["id"] != "r1" {
		t.Errorf("ожидался id=r1, получен %v", records[0]["id"])
	}
}

func TestExtract_FencedBlockWithoutLanguageTag(t *testing.T) {
	text := "Результат:\n```\n[{\"id\":\"kitchen\",\"bounding_box\":[0,0,100,100],\"name_hint\":\"Kitchen\"}]\n```"

	records, err := New().Extract(text)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if len(records) != 1 || records[0]["name_hint"] != "Kitchen" {
		t.Errorf("неожиданный результат извлечения: %v", records)
	}
}

func TestExtract_PureJSONArray(t *testing.T) {
	text := `[{"id":"a","bounding_box":[1,2,3,4]},{"id":"b","bounding_box":[5,6,7,8]}]`

	records, err := New().Extract(text)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ожидалось 2 записи, получено %d", len(records))
	}
}

func TestExtract_ArrayInsideObject(t *testing.T) {
	// Модель иногда оборачивает массив в объект
	text := `{"rooms": [{"id":"r1","bounding_box":[10,10,20,20]}]}`

	records, err := New().Extract(text)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if len(records) != 1 || records[0]["id"] != "r1" {
		t.Errorf("неожиданный результат извлечения: %v", records)
	}
}

func TestExtract_ProseAroundArray(t *testing.T) {
	text := "I found the following rooms [see below].\n\n[{\"id\":\"r1\",\"bounding_box\":[10,10,20,20]}]\n\nLet me know if you need anything else."

	records, err := New().Extract(text)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if len(records) != 1 || records[0]["id"] != "r1" {
		t.Errorf("неожиданный результат извлечения: %v", records)
	}
}

func TestExtract_FirstParsableSpanWins(t *testing.T) {
	// Первый span не разбирается (оборванный массив), берется второй
	text := "broken: [1, 2 and then [{\"id\":\"r1\",\"bounding_box\":[10,10,20,20]}] trailing"

	records, err := New().Extract(text)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if len(records) != 1 || records[0]["id"] != "r1" {
		t.Errorf("неожиданный результат извлечения: %v", records)
	}
}

func TestExtract_BracketsInsideStrings(t *testing.T) {
	text := `[{"id":"r[1]","bounding_box":[10,10,20,20],"name_hint":"Room \"A\" [main]"}]`

	records, err := New().Extract(text)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if records[0]["id"] != "r[1]" {
		t.Errorf("скобки внутри строк сломали разбор: %v", records[0]["id"])
	}
}

func TestExtract_EmptyArray(t *testing.T) {
	records, err := New().Extract("Rooms: []")
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ожидался пустой результат, получено %d записей", len(records))
	}
}

func TestExtract_NonObjectElementsBecomeNilRecords(t *testing.T) {
	records, err := New().Extract(`[{"id":"r1","bounding_box":[10,10,20,20]}, 42]`)
	if err != nil {
		t.Fatalf("Extract() вернул ошибку: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ожидалось 2 записи, получено %d", len(records))
	}
	if records[1] != nil {
		t.Errorf("не-объект должен стать nil-записью, получено %v", records[1])
	}
}

func TestExtract_NoParsableSpan(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"пустой текст", ""},
		{"только проза", "Sorry, I could not find any rooms in this image."},
		{"оборванный массив", `[{"id":"r1","bounding_box":[10,10,20,20]}`},
		{"массив без объектов", "[1, 2, 3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Extract(tt.text)
			if err == nil {
				t.Fatal("ожидалась ошибка извлечения")
			}

			var extractionErr *ExtractionError
			if !errors.As(err, &extractionErr) {
				t.Errorf("ожидался *ExtractionError, получен %T", err)
			}
		})
	}
}
