package extractor

import (
	"encoding/json"
	"strings"
)

// Record — нетипизированная запись комнаты из ответа модели.
// Элемент массива, который не является JSON-объектом, представляется nil-записью
// и отбраковывается валидатором на следующем этапе.
type Record = map[string]any

// ExtractionError означает, что в тексте ответа не найден разбираемый
// структурированный фрагмент. Ошибка восстановимая: вызывающая сторона
// трактует ее как "комнаты не обнаружены".
type ExtractionError struct {
	Reason string // Причина неудачи извлечения
}

// Error реализует интерфейс error
func (e *ExtractionError) Error() string {
	return "не удалось извлечь данные из ответа модели: " + e.Reason
}

// Extractor извлекает записи комнат из произвольного текстового ответа vision-модели.
// Модель может обернуть JSON в markdown-блок кода и окружить его пояснительным
// текстом — извлекается первый фрагмент, который успешно разбирается.
type Extractor struct{}

// New создает новый экстрактор
func New() *Extractor {
	return &Extractor{}
}

// Extract извлекает последовательность записей комнат из текста ответа.
// Порядок поиска: сначала содержимое fenced-блоков кода, затем массивы
// в тексте целиком. Чистая функция без побочных эффектов.
func (e *Extractor) Extract(responseText string) ([]Record, error) {
	trimmed := strings.TrimSpace(responseText)
	if trimmed == "" {
		return nil, &ExtractionError{Reason: "пустой ответ модели"}
	}

	// 1. Ищем массивы внутри fenced-блоков кода (```json ... ```)
	for _, block := range fencedBlocks(trimmed) {
		if records, ok := firstParsableArray(block); ok {
			return records, nil
		}
	}

	// 2. Ищем массивы в тексте целиком (ответ может быть чистым JSON
	// или JSON с комментариями до/после)
	if records, ok := firstParsableArray(trimmed); ok {
		return records, nil
	}

	return nil, &ExtractionError{Reason: "в тексте не найден JSON-массив записей комнат"}
}

// fencedBlocks возвращает содержимое всех fenced-блоков кода в порядке появления.
// Метка языка после открывающего ограждения отбрасывается.
func fencedBlocks(text string) []string {
	var blocks []string

	rest := text
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		rest = rest[start+3:]

		end := strings.Index(rest, "```")
		if end < 0 {
			break
		}

		block := rest[:end]
		rest = rest[end+3:]

		// Отбрасываем метку языка на первой строке блока
		if nl := strings.IndexByte(block, '\n'); nl >= 0 {
			firstLine := strings.TrimSpace(block[:nl])
			if firstLine != "" && !strings.ContainsAny(firstLine, "[]{}\",") {
				block = block[nl+1:]
			}
		}

		blocks = append(blocks, block)
	}

	return blocks
}

// firstParsableArray находит первый сбалансированный массив в тексте,
// который успешно разбирается как последовательность записей
func firstParsableArray(text string) ([]Record, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}

		span, ok := balancedSpan(text[i:])
		if !ok {
			continue
		}

		if records, ok := parseRecords(span); ok {
			return records, true
		}
	}
	return nil, false
}

// balancedSpan возвращает префикс текста от открывающей скобки до парной
// закрывающей, учитывая вложенность и строковые литералы
func balancedSpan(text string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return text[:i+1], true
			}
		}
	}

	return "", false
}

// parseRecords разбирает фрагмент как JSON-массив записей.
// Фрагмент считается успешно разобранным, если это валидный массив и он
// пуст либо содержит хотя бы один объект; иначе поиск продолжается.
func parseRecords(span string) ([]Record, bool) {
	var items []any
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil, false
	}

	records := make([]Record, 0, len(items))
	hasObject := false
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, obj)
			hasObject = true
		} else {
			records = append(records, nil)
		}
	}

	if len(items) > 0 && !hasObject {
		return nil, false
	}

	return records, true
}
