package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	resp, err := http.Get("http://localhost:8080/api/v1/health")
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Ошибка чтения ответа: %v\n", err)
		return
	}

	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", resp.StatusCode, string(body))

	// Если передан файл с текстом ответа модели, отправляем его на валидацию
	if len(os.Args) > 1 {
		responsePath := os.Args[1]
		fmt.Printf("Отправляем ответ модели из %s на валидацию...\n", responsePath)

		if err := testValidate(responsePath); err != nil {
			fmt.Printf("Ошибка при тестировании валидации: %v\n", err)
		}
	} else {
		fmt.Println("Для тестирования валидации запустите: go run test_client.go <файл_с_ответом_модели>")
	}
}

func testValidate(responsePath string) error {
	// Читаем файл с текстом ответа модели
	responseText, err := os.ReadFile(responsePath)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла ответа: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"response_text": string(responseText),
	})
	if err != nil {
		return fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	resp, err := http.Post(
		"http://localhost:8080/api/v1/detect/validate",
		"application/json",
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Printf("Ответ валидации (статус %d):\n%s\n", resp.StatusCode, string(body))
	return nil
}
