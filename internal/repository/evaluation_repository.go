package repository

import (
	"fmt"

	"blueprint-eval-go/internal/model"

	"gorm.io/gorm"
)

// EvaluationRepository интерфейс для работы с прогонами оценки
type EvaluationRepository interface {
	Create(run *model.EvaluationRun) error
	GetByID(id string) (*model.EvaluationRun, error)
	List(page, pageSize int) ([]*model.EvaluationRun, int64, error)
	Delete(id string) error
}

// evaluationRepository реализация EvaluationRepository
type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository создает новый instance EvaluationRepository
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{
		db: db,
	}
}

// Create создает новый прогон оценки в базе данных
func (r *evaluationRepository) Create(run *model.EvaluationRun) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала создаем прогон
	if err := tx.Create(run).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create evaluation run: %w", err)
	}

	// Затем создаем пер-кейсовые результаты
	for i := range run.Cases {
		run.Cases[i].ID = 0 // Обнуляем ID для auto-increment
		run.Cases[i].RunID = run.ID

		if err := tx.Create(&run.Cases[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create case result %d: %w", i, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID получает прогон оценки по ID
func (r *evaluationRepository) GetByID(id string) (*model.EvaluationRun, error) {
	var run model.EvaluationRun
	err := r.db.Preload("Cases").Where("id = ?", id).First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("evaluation run with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get evaluation run: %w", err)
	}
	return &run, nil
}

// List получает список прогонов с пагинацией
func (r *evaluationRepository) List(page, pageSize int) ([]*model.EvaluationRun, int64, error) {
	var runs []*model.EvaluationRun
	var total int64

	// Подсчитываем общее количество
	if err := r.db.Model(&model.EvaluationRun{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count evaluation runs: %w", err)
	}

	// Получаем прогоны с пагинацией
	offset := (page - 1) * pageSize
	err := r.db.Preload("Cases").
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&runs).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list evaluation runs: %w", err)
	}

	return runs, total, nil
}

// Delete удаляет прогон оценки по ID
func (r *evaluationRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала удаляем пер-кейсовые результаты
	if err := tx.Where("run_id = ?", id).Delete(&model.CaseResult{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete case results: %w", err)
	}

	// Затем удаляем прогон
	result := tx.Where("id = ?", id).Delete(&model.EvaluationRun{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete evaluation run: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("evaluation run with id %s not found", id)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
