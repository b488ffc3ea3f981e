package model

import (
	"time"

	"gorm.io/gorm"
)

// EvaluationRun представляет прогон batch-оценки в базе данных
type EvaluationRun struct {
	ID           string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SuiteDir     string  `gorm:"type:varchar(500);not null" json:"suite_dir"`
	ResultsDir   string  `gorm:"type:varchar(500);not null" json:"results_dir"`
	IoUThreshold float64 `gorm:"not null" json:"iou_threshold"`
	WorstN       int     `gorm:"not null" json:"worst_n"`

	// Агрегированные метрики прогона
	TotalCases             int     `gorm:"not null;default:0" json:"total_cases"`
	MeanIoU                float64 `gorm:"not null;default:0" json:"mean_iou"`
	MedianIoU              float64 `gorm:"not null;default:0" json:"median_iou"`
	MeanDetectionRate      float64 `gorm:"not null;default:0" json:"mean_detection_rate"`
	MeanFalsePositiveCount float64 `gorm:"not null;default:0" json:"mean_false_positive_count"`
	MeanFalseNegativeCount float64 `gorm:"not null;default:0" json:"mean_false_negative_count"`
	MeanPrecision          float64 `gorm:"not null;default:0" json:"mean_precision"`
	MeanRecall             float64 `gorm:"not null;default:0" json:"mean_recall"`
	MeanF1Score            float64 `gorm:"not null;default:0" json:"mean_f1_score"`

	// Полный отчет в JSON для отдачи без пересчета
	ReportJSON string `gorm:"type:text" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связь с пер-кейсовыми результатами
	Cases []CaseResult `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"cases"`
}

// CaseResult представляет метрики одного чертежа в рамках прогона
type CaseResult struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID    string `gorm:"type:varchar(36);not null;index" json:"run_id"`
	CaseID   string `gorm:"type:varchar(255);not null" json:"case_id"`
	Category string `gorm:"type:varchar(100)" json:"category"`

	AverageIoU         float64 `gorm:"not null" json:"average_iou"`
	DetectionRate      float64 `gorm:"not null" json:"detection_rate"`
	TruePositiveCount  int     `gorm:"not null" json:"true_positive_count"`
	FalsePositiveCount int     `gorm:"not null" json:"false_positive_count"`
	FalseNegativeCount int     `gorm:"not null" json:"false_negative_count"`
	RoomCountPredicted int     `gorm:"not null" json:"room_count_predicted"`
	RoomCountTruth     int     `gorm:"not null" json:"room_count_truth"`
	Precision          float64 `gorm:"not null" json:"precision"`
	Recall             float64 `gorm:"not null" json:"recall"`
	F1Score            float64 `gorm:"not null" json:"f1_score"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Обратная связь с прогоном
	Run EvaluationRun `gorm:"foreignKey:RunID;references:ID" json:"-"`
}

// TableName указывает имя таблицы для EvaluationRun
func (EvaluationRun) TableName() string {
	return "evaluation_runs"
}

// TableName указывает имя таблицы для CaseResult
func (CaseResult) TableName() string {
	return "case_results"
}
