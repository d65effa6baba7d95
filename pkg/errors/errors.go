// Package errors: 스태프 추적 봇 전체에서 사용되는 에러 타입들을 정의한다.
package errors

import "fmt"

// FetchStage: 스냅샷 조회 중 실패가 발생한 단계
type FetchStage string

// FetchStage 상수 목록.
const (
	FetchStageRequest  FetchStage = "request"  // 네트워크/요청 생성 실패
	FetchStageStatus   FetchStage = "status"   // 2xx 이외의 HTTP 상태
	FetchStageDecode   FetchStage = "decode"   // JSON 문법/타입 오류
	FetchStageValidate FetchStage = "validate" // 스키마 위반 (필드 누락, 중복 역할 등)
)

// FetchError: 스태프 API 조회 실패를 하나로 묶은 에러
// 네트워크, HTTP 상태, 파싱 실패 모두 이 타입으로 전달되며 사이클 단위로 복구된다.
type FetchError struct {
	Stage      FetchStage
	StatusCode int   // Stage가 status일 때만 의미가 있다
	Err        error // 원인 에러
}

func (e FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error stage=%s status=%d", e.Stage, e.StatusCode)
	}
	return fmt.Sprintf("fetch error stage=%s status=%d: %v", e.Stage, e.StatusCode, e.Err)
}

func (e FetchError) Unwrap() error { return e.Err }

// NewFetchError: 조회 에러를 생성한다.
func NewFetchError(stage FetchStage, statusCode int, cause error) *FetchError {
	return &FetchError{
		Stage:      stage,
		StatusCode: statusCode,
		Err:        cause,
	}
}

// APIError: 외부 API 호출 중 발생한 에러 (트래커 프로필 페이지 등)
type APIError struct {
	Operation  string // 수행 중이던 API 작업
	StatusCode int    // HTTP 상태 코드 (0이면 네트워크 오류)
	Err        error  // 원인 에러
}

func (e APIError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("api error operation=%s status=%d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("api error operation=%s status=%d: %v", e.Operation, e.StatusCode, e.Err)
}

func (e APIError) Unwrap() error { return e.Err }

// NewAPIError: API 에러를 생성한다.
func NewAPIError(operation string, statusCode int, cause error) *APIError {
	return &APIError{
		Operation:  operation,
		StatusCode: statusCode,
		Err:        cause,
	}
}

// CacheError: 캐시 작업 중 발생한 에러
type CacheError struct {
	Operation string // get, set 등
	Key       string // 캐시 키
	Err       error  // 원인 에러
}

func (e CacheError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache error operation=%s key=%s", e.Operation, e.Key)
	}
	return fmt.Sprintf("cache error operation=%s key=%s: %v", e.Operation, e.Key, e.Err)
}

func (e CacheError) Unwrap() error { return e.Err }

// NewCacheError: 캐시 에러를 생성한다.
func NewCacheError(operation, key string, cause error) *CacheError {
	return &CacheError{
		Operation: operation,
		Key:       key,
		Err:       cause,
	}
}

// ValidationError: 설정/입력 검증 실패 에러
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error field=%s: %s", e.Field, e.Message)
}

// NewValidationError: 검증 에러를 생성한다.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ServiceError: 내부 서비스 로직 에러
type ServiceError struct {
	Service   string // 서비스 이름
	Operation string // 작업 이름
	Err       error  // 원인 에러
}

func (e ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("service error service=%s operation=%s", e.Service, e.Operation)
	}
	return fmt.Sprintf("service error service=%s operation=%s: %v", e.Service, e.Operation, e.Err)
}

func (e ServiceError) Unwrap() error { return e.Err }

// NewServiceError: 서비스 에러를 생성한다.
func NewServiceError(service, operation string, cause error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       cause,
	}
}
