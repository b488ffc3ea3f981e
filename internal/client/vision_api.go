package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"blueprint-eval-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// VisionAPIClient клиент для взаимодействия со шлюзом vision-модели.
// Для ядра пайплайна модель — черный ящик, возвращающий текстовый ответ.
type VisionAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewVisionAPIClient создает новый клиент шлюза vision-модели
func NewVisionAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *VisionAPIClient {
	return &VisionAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// DetectRooms отправляет изображение чертежа на распознавание комнат
// и возвращает сырой текстовый ответ модели
func (c *VisionAPIClient) DetectRooms(request models.DetectRequest) (*models.VisionAPIResponse, error) {
	c.logger.Info("Отправка чертежа на распознавание в vision API")

	// Создаем multipart form-data
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// Добавляем файл изображения
	imageWriter, err := writer.CreateFormFile("image", request.ImageFilename)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для изображения: %w", err)
	}

	if _, err := imageWriter.Write(request.ImageData); err != nil {
		return nil, fmt.Errorf("ошибка записи данных изображения: %w", err)
	}

	// Добавляем complexity
	if err := writer.WriteField("complexity", request.Complexity); err != nil {
		return nil, fmt.Errorf("ошибка записи complexity: %w", err)
	}

	// Добавляем hasSmallText
	if err := writer.WriteField("hasSmallText", fmt.Sprintf("%t", request.HasSmallText)); err != nil {
		return nil, fmt.Errorf("ошибка записи hasSmallText: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	// Создаем HTTP запрос
	url := fmt.Sprintf("%s/detect", c.baseURL)
	req, err := http.NewRequest("POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	// Отправляем запрос
	c.logger.Debugf("Отправка POST запроса на %s", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	// Читаем ответ
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	// Парсим JSON ответ
	var apiResponse models.VisionAPIResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	c.logger.Info("Успешно получен ответ от vision API")
	return &apiResponse, nil
}

// CheckHealth проверяет состояние шлюза vision-модели
func (c *VisionAPIClient) CheckHealth() (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья vision API")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &healthResponse, nil
}
