package models

// DetectRequest представляет запрос на распознавание комнат на чертеже
type DetectRequest struct {
	ImageData     []byte `json:"-"`              // Данные изображения чертежа (не сериализуем в JSON)
	ImageFilename string `json:"image_filename"` // Имя файла изображения
	Complexity    string `json:"complexity"`     // Сложность чертежа (simple/standard/complex)
	HasSmallText  bool   `json:"has_small_text"` // Есть ли на чертеже мелкий текст
}

// VisionAPIResponse определяет структуру ответа шлюза vision-модели
type VisionAPIResponse struct {
	Status       string `json:"status"`        // Статус выполнения
	Message      string `json:"message"`       // Сообщение
	ResponseText string `json:"response_text"` // Сырой текстовый ответ модели
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Доступна ли vision-модель
	Version     string `json:"version"`      // Версия сервиса
}
