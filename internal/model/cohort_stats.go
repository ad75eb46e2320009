package model

import "time"

// CohortStats 某测验的群体统计快照，由后台聚合任务周期性重算，
// 读路径只消费最近一次发布的快照（最终一致）
// swagger:model CohortStats
type CohortStats struct {
	BaseModel

	QuizID               string    `gorm:"size:36;uniqueIndex" json:"quizId"`
	TotalUsers           int       `gorm:"default:0" json:"totalUsers"`
	AvgScoreWithRisk     float64   `gorm:"default:0" json:"avgScoreWithRisk"`
	AvgScoreWithoutRisk  float64   `gorm:"default:0" json:"avgScoreWithoutRisk"`
	Top20CutoffWithRisk  float64   `gorm:"default:0" json:"top20CutoffWithRisk"`
	Top20CutoffWithoutRisk float64 `gorm:"default:0" json:"top20CutoffWithoutRisk"`
	ComputedAt           time.Time `json:"computedAt"`
}

func (CohortStats) TableName() string {
	return "cohort_stats"
}
