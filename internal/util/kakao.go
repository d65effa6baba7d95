package util

import "strings"

// 카카오 메시지 관련 상수 목록.
const (
	// KakaoSeeMorePadding: 카카오톡이 '전체 보기'로 접기 시작하는 길이를 넘기기 위한 투명 공백 수
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
)

// KakaoSeeMore: header만 미리보기에 보이고 body는 '전체 보기'로 접히도록 사이에 투명 공백을 채운다.
// body가 비어있으면 header만, header가 비어있으면 body만 반환한다.
func KakaoSeeMore(header, body string) string {
	header = TrimSpace(header)
	body = strings.TrimLeft(body, "\r\n")
	switch {
	case body == "":
		return header
	case header == "":
		return body
	}

	var builder strings.Builder
	builder.Grow(len(header) + len(KakaoZeroWidthSpace)*KakaoSeeMorePadding + len(body) + 1)
	builder.WriteString(header)
	builder.WriteString(strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding))
	builder.WriteByte('\n')
	builder.WriteString(body)
	return builder.String()
}
