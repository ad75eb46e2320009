package model

import "time"

type VisibilityState string

const (
	VisibilityVisible VisibilityState = "visible"
	VisibilityHidden  VisibilityState = "hidden"
	VisibilityLocked  VisibilityState = "locked"
)

// Visibility 内容可见性，在模型边界把旧的哨兵日期翻译成显式状态，
// 内部逻辑不再和魔法常量比较日期
type Visibility struct {
	State    VisibilityState `json:"state"`
	UnlockAt *time.Time      `json:"unlockAt,omitempty"`
}

// hiddenSentinelYear 旧数据用公元9999年的日期表示"隐藏"，区别于真实的解锁日期
const hiddenSentinelYear = 9999

// ResolveVisibility 把存储层的 visible_from 字段翻译成 Visibility
func ResolveVisibility(visibleFrom *time.Time, now time.Time) Visibility {
	if visibleFrom == nil {
		return Visibility{State: VisibilityVisible}
	}
	if visibleFrom.Year() >= hiddenSentinelYear {
		return Visibility{State: VisibilityHidden}
	}
	if visibleFrom.After(now) {
		t := *visibleFrom
		return Visibility{State: VisibilityLocked, UnlockAt: &t}
	}
	return Visibility{State: VisibilityVisible}
}

// HiddenSentinel 写入旧存储格式时使用的哨兵日期
func HiddenSentinel() time.Time {
	return time.Date(hiddenSentinelYear, 12, 31, 0, 0, 0, 0, time.UTC)
}

func (l *Lesson) Visibility(now time.Time) Visibility {
	return ResolveVisibility(l.VisibleFrom, now)
}

func (q *Quiz) Visibility(now time.Time) Visibility {
	return ResolveVisibility(q.VisibleFrom, now)
}
