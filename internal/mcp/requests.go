package mcp

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yuanlichao666/llm-ops/internal/config"
)

type segmentTextRequest struct {
	Text            string   `json:"text"`
	ThresholdType   string   `json:"threshold_type"   validate:"required,oneof=percentile standard_deviation interquartile gradient"`
	ThresholdAmount *float64 `json:"threshold_amount"`
	NumberOfChunks  int      `json:"number_of_chunks" validate:"gte=0"`
	Separator       string   `json:"separator"        validate:"omitempty,regexp"`
	BufferSize      *int     `json:"buffer_size"      validate:"omitempty,gte=0"`
}

type splitTextRequest struct {
	Text               string   `json:"text"`
	Mode               string   `json:"mode"          validate:"omitempty,oneof=character recursive"`
	Separators         []string `json:"separators"`
	SeparatorsAreRegex bool     `json:"separators_are_regex"`
	ChunkSize          int      `json:"chunk_size"    validate:"gt=0"`
	ChunkOverlap       int      `json:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	KeepSeparator      *bool    `json:"keep_separator"`
}

type indexDocumentsRequest struct {
	Path         string   `json:"path"    validate:"required"`
	Include      []string `json:"include" validate:"omitempty,dive,required"`
	ForceReindex bool     `json:"force_reindex"`
}

type indexTextRequest struct {
	Source string `json:"source" validate:"required"`
	Text   string `json:"text"`
}

type searchChunksRequest struct {
	Query    string  `json:"query"     validate:"required"`
	Limit    int     `json:"limit"     validate:"gte=0,lte=100"`
	MinScore float64 `json:"min_score" validate:"gte=0,lte=1"`
	Mode     string  `json:"mode"      validate:"omitempty,oneof=vector text hybrid"`
}

var validate = newRequestValidator()

// newRequestValidator reports failures by JSON argument name
func newRequestValidator() *validator.Validate {
	v := config.NewValidator()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindArguments decodes the tool arguments into target and validates it.
// Failures are returned as invalid-params MCP errors.
func bindArguments(request mcp.CallToolRequest, target any) error {
	var args map[string]interface{}
	switch a := request.Params.Arguments.(type) {
	case nil:
		args = map[string]interface{}{}
	case map[string]interface{}:
		args = a
	default:
		return newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return newMCPError(ErrorCodeInvalidParams, "invalid arguments", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	if err := json.Unmarshal(raw, target); err != nil {
		data := map[string]interface{}{"reason": err.Error()}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			data["param"] = typeErr.Field
		}
		return newMCPError(ErrorCodeInvalidParams, "invalid arguments", data)
	}

	if err := validate.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return newMCPError(ErrorCodeInvalidParams, "invalid arguments", map[string]interface{}{
				"reason": err.Error(),
			})
		}
		first := fieldErrs[0]
		return newMCPError(ErrorCodeInvalidParams, "invalid "+first.Field(), map[string]interface{}{
			"param":  first.Field(),
			"reason": validationReason(first),
		})
	}
	return nil
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing or empty"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "regexp":
		return "not a valid regular expression"
	case "ltfield":
		return "must be smaller than chunk_size"
	default:
		if fe.Param() != "" {
			return fe.Tag() + "=" + fe.Param()
		}
		return fe.Tag()
	}
}
