package util

import "time"

// KSTLayout: 사용자에게 보여줄 시각 포맷
const KSTLayout = "2006-01-02 15:04:05"

var kstLocation *time.Location

func init() {
	var err error
	kstLocation, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		kstLocation = time.FixedZone("KST", 9*60*60)
	}
}

// FormatKST: 주어진 시간을 KST 기준으로 지정된 포맷 문자열로 변환합니다.
func FormatKST(t time.Time, layout string) string {
	return t.In(kstLocation).Format(layout)
}
