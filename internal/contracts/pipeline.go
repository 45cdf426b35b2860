package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 진단, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   RESOLVE → SHAPE → VALIDATE → FORECAST → SCORE → NOTIFY → RENDER
//   → UPLOAD → PERSIST → SYNC → COMMIT → DONE
//
// NOTIFY 이전의 실패와 NOTIFY/RENDER 실패는 run 전체를 중단시킨다.
// UPLOAD 이후 단계는 best-effort: 실패는 기록만 하고 계속 진행.

// Stage represents a pipeline stage
type Stage string

const (
	// StageResolve 라이브 피드 또는 합성 시계열 확보
	// 위치: internal/datasource/
	StageResolve Stage = "RESOLVE"

	// StageShape 캘린더/래그 피처 생성
	// 위치: internal/features/
	StageShape Stage = "SHAPE"

	// StageValidate 불완전 행 제거 후 관측치 수 검증 (유일한 데이터 치명 조건)
	StageValidate Stage = "VALIDATE"

	// StageForecast train/test 분할 + naive forecast
	// 위치: internal/forecast/
	StageForecast Stage = "FORECAST"

	// StageScore RMSE/MAE/MAPE 및 방향성 지표
	StageScore Stage = "SCORE"

	// StageNotify 요약 메시지 전송 (주 산출물, 실패 시 run 실패)
	StageNotify Stage = "NOTIFY"

	// StageRender 차트 이미지 생성
	// 위치: internal/report/
	StageRender Stage = "RENDER"

	// StageUpload 차트 업로드 (best-effort)
	StageUpload Stage = "UPLOAD"

	// StagePersist run + 값 저장 (best-effort)
	// 위치: internal/store/
	StagePersist Stage = "PERSIST"

	// StageSync Notion 페이지 생성 (best-effort)
	StageSync Stage = "SYNC"

	// StageCommit GitHub 커밋 (best-effort)
	StageCommit Stage = "COMMIT"

	// StageDone 완료
	StageDone Stage = "DONE"
)

// AllStages returns all pipeline stages in execution order
func AllStages() []Stage {
	return []Stage{
		StageResolve,
		StageShape,
		StageValidate,
		StageForecast,
		StageScore,
		StageNotify,
		StageRender,
		StageUpload,
		StagePersist,
		StageSync,
		StageCommit,
		StageDone,
	}
}

// IsBestEffort reports whether a failure in this stage is tolerated
func (s Stage) IsBestEffort() bool {
	switch s {
	case StageUpload, StagePersist, StageSync, StageCommit:
		return true
	default:
		return false
	}
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}
