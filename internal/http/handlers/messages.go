package handlers

import (
	"errors"
	"net/http"

	"artshift/internal/domain"
	"artshift/internal/imagegen"
	"artshift/internal/middleware"
	"artshift/internal/studio"
)

// Error codes returned in the error envelope.
const (
	codeBadRequest          = "bad_request"
	codeInvalidImage        = "invalid_image"
	codeInvalidAspectRatio  = "invalid_aspect_ratio"
	codeUnknownStyle        = "unknown_style"
	codeNotFound            = "not_found"
	codeNoResult            = "no_result"
	codeTransformInProgress = "transform_in_progress"
	codeSuperseded          = "superseded"
	codeUploadTooLarge      = "upload_too_large"
	codeInternal            = "internal"
)

var messages = map[string]map[string]string{
	string(imagegen.FailureMissingImage): {
		"en": "Please upload an image first.",
		"zh": "请先上传一张图片。",
	},
	string(imagegen.FailureNoImage): {
		"en": "The model did not return an image. Please try again.",
		"zh": "模型没有返回图片，请重试。",
	},
	string(imagegen.FailureSafety): {
		"en": "The request was blocked by the safety filter. Please simplify your instructions.",
		"zh": "请求被安全过滤器拦截，请简化您的指令。",
	},
	string(imagegen.FailureRateLimited): {
		"en": "Requests are too frequent. Please try again later.",
		"zh": "请求过于频繁，请稍后再试。",
	},
	string(imagegen.FailureNetwork): {
		"en": "Transformation failed. Check your network or try another image.",
		"zh": "转换失败，请检查网络或尝试其他图片。",
	},
	codeBadRequest: {
		"en": "The request could not be understood.",
		"zh": "无法解析请求。",
	},
	codeInvalidImage: {
		"en": "The uploaded file is not a supported image.",
		"zh": "上传的文件不是受支持的图片。",
	},
	codeInvalidAspectRatio: {
		"en": "Unsupported aspect ratio.",
		"zh": "不支持的画面比例。",
	},
	codeUnknownStyle: {
		"en": "Unknown style.",
		"zh": "未知的风格。",
	},
	codeNotFound: {
		"en": "Not found.",
		"zh": "未找到。",
	},
	codeNoResult: {
		"en": "There is no transformed image yet.",
		"zh": "还没有转换后的图片。",
	},
	codeTransformInProgress: {
		"en": "A transformation is already running.",
		"zh": "已有转换正在进行中。",
	},
	codeSuperseded: {
		"en": "The workspace changed while the request was running.",
		"zh": "请求进行期间工作区已被更改。",
	},
	codeUploadTooLarge: {
		"en": "The uploaded image is too large.",
		"zh": "上传的图片过大。",
	},
	codeInternal: {
		"en": "Something went wrong. Please try again.",
		"zh": "出现错误，请重试。",
	},
}

func localize(r *http.Request, code string) string {
	locale := middleware.LocaleFromContext(r.Context())
	byLocale, ok := messages[code]
	if !ok {
		byLocale = messages[codeInternal]
	}
	if msg, ok := byLocale[locale]; ok {
		return msg
	}
	return byLocale["en"]
}

var transformStatus = map[imagegen.FailureKind]int{
	imagegen.FailureMissingImage: http.StatusBadRequest,
	imagegen.FailureSafety:       http.StatusUnprocessableEntity,
	imagegen.FailureRateLimited:  http.StatusTooManyRequests,
	imagegen.FailureNoImage:      http.StatusBadGateway,
	imagegen.FailureNetwork:      http.StatusBadGateway,
	imagegen.FailureInvalidImage: http.StatusBadRequest,
}

// classify maps domain, studio and transform errors onto a status and code.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	var te *imagegen.TransformError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, codeUploadTooLarge
	case errors.Is(err, domain.ErrInvalidImage):
		return http.StatusBadRequest, codeInvalidImage
	case errors.Is(err, domain.ErrInvalidAspectRatio):
		return http.StatusBadRequest, codeInvalidAspectRatio
	case errors.Is(err, domain.ErrUnknownStyle):
		return http.StatusBadRequest, codeUnknownStyle
	case errors.Is(err, domain.ErrIndexOutOfRange), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, studio.ErrNoResult):
		return http.StatusNotFound, codeNoResult
	case errors.Is(err, studio.ErrTransformInProgress):
		return http.StatusConflict, codeTransformInProgress
	case errors.Is(err, studio.ErrSuperseded):
		return http.StatusConflict, codeSuperseded
	case errors.As(err, &te):
		kind := te.Kind
		if status, ok := transformStatus[kind]; ok {
			return status, string(kind)
		}
		return http.StatusBadGateway, string(imagegen.FailureNetwork)
	}
	return http.StatusInternalServerError, codeInternal
}

func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	event := a.Logger.Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		event = a.Logger.Error()
	}
	event.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("code", code).
		Int("status", status).
		Msg("request failed")
	a.error(w, status, code, localize(r, code))
}

// RateLimited answers requests rejected by the rate limiter.
func (a *App) RateLimited(w http.ResponseWriter, r *http.Request) {
	code := string(imagegen.FailureRateLimited)
	a.error(w, http.StatusTooManyRequests, code, localize(r, code))
}
