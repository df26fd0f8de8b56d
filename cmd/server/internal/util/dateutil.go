package util

import (
	"fmt"
	"time"
)

// DateLayout ISO 日期格式 (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// WeekRange 周一到周日的日期范围，作为周报页面的自然键
type WeekRange struct {
	Start string // 周一 (YYYY-MM-DD)
	End   string // 周日 (YYYY-MM-DD)
}

// Title 返回周报页面标题: "{start} ~ {end}"
func (w WeekRange) Title() string {
	return fmt.Sprintf("%s ~ %s", w.Start, w.End)
}

// ParseDate 解析 ISO 日期字符串
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatDate 格式化为 ISO 日期字符串
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidateDate 校验日期字符串格式
func ValidateDate(s string) error {
	_, err := ParseDate(s)
	return err
}

// GetWeekRange 计算给定日期所在周的范围（周一到周日）
// 周日输入时回退6天到周一，而不是跨入下一周
func GetWeekRange(dateStr string) (WeekRange, error) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return WeekRange{}, err
	}
	return weekRangeOf(t), nil
}

// CurrentWeekRange 返回当前日历周的范围
func CurrentWeekRange() WeekRange {
	return weekRangeOf(time.Now())
}

func weekRangeOf(t time.Time) WeekRange {
	// Go 的 Weekday: Sunday=0..Saturday=6；周日需要映射为 6 而不是 -1
	daysToMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysToMonday)
	sunday := monday.AddDate(0, 0, 6)
	return WeekRange{Start: FormatDate(monday), End: FormatDate(sunday)}
}
