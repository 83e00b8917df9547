package models

import (
	"fmt"
	"strings"
	"time"
)

// Bucket names a due-date offset class. Values double as template keys.
type Bucket string

const (
	Bucket5DaysBefore  Bucket = "5_days_before"
	Bucket3DaysBefore  Bucket = "3_days_before"
	Bucket1DayBefore   Bucket = "1_day_before"
	BucketToday        Bucket = "today"
	Bucket1DayOverdue  Bucket = "1_day_overdue"
	Bucket3DaysOverdue Bucket = "3_days_overdue"
	Bucket7DaysOverdue Bucket = "7_days_overdue"
)

// DaysOverdue builds the N_days_overdue bucket used for severe arrears.
func DaysOverdue(n int) Bucket {
	if n == 1 {
		return Bucket1DayOverdue
	}
	return Bucket(fmt.Sprintf("%d_days_overdue", n))
}

// BucketForOffset classifies the number of days until the due date for the
// interval sweep. Offsets without a bucket, such as +2, report false.
func BucketForOffset(days int) (Bucket, bool) {
	switch {
	case days == 3:
		return Bucket3DaysBefore, true
	case days == 1:
		return Bucket1DayBefore, true
	case days == 0:
		return BucketToday, true
	case days == -1:
		return Bucket1DayOverdue, true
	case days < -1:
		return DaysOverdue(-days), true
	default:
		return "", false
	}
}

func (b Bucket) IsOverdue() bool {
	return strings.HasSuffix(string(b), "_overdue")
}

// NoticeKey identifies one logical notification: a contract instalment in a
// bucket. Both sweeps build the same key for the same notice.
type NoticeKey struct {
	ContractID string
	DueDate    string
	Bucket     Bucket
}

// NewNoticeKey normalises due to ISO form so that ERP date formats do not
// produce distinct keys.
func NewNoticeKey(contractID string, due time.Time, bucket Bucket) NoticeKey {
	return NoticeKey{ContractID: contractID, DueDate: due.Format("2006-01-02"), Bucket: bucket}
}

func (k NoticeKey) String() string {
	return k.ContractID + ":" + k.DueDate + ":" + string(k.Bucket)
}

// DayOffset returns the whole days from today to due, both taken as calendar
// dates in loc.
func DayOffset(due, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(today).Hours() / 24)
}
