package vision

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// rollNumber accepts both JSON strings and numbers.
type rollNumber string

func (r *rollNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = rollNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Errorf("roll must be a string or a number, got %s", b)
	}
	*r = rollNumber(n.String())
	return nil
}

type (
	response struct {
		Mode       Mode              `json:"mode" validate:"required,oneof=ROLL_NUMBER_LIST ATTENDANCE_CHART"`
		Date       string            `json:"date" validate:"required_if=Mode ATTENDANCE_CHART,omitempty,datetime=2006-01-02"`
		Entries    []responseEntry   `json:"entries" validate:"dive"`
		Unreadable []unreadableEntry `json:"unreadable" validate:"dive"`
	}

	responseEntry struct {
		Roll       rollNumber `json:"roll" validate:"required"`
		Status     Status     `json:"status" validate:"omitempty,oneof=present absent"`
		Confidence *float64   `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	}

	unreadableEntry struct {
		Raw        string   `json:"raw" validate:"required"`
		Confidence *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	}
)

func newContractValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterStructValidation(responseStructLevelValidation, response{})
	return validate
}

// responseStructLevelValidation requires a status on every chart entry.
func responseStructLevelValidation(sl validator.StructLevel) {
	resp := sl.Current().Interface().(response)
	if resp.Mode != ModeChart {
		return
	}
	for _, e := range resp.Entries {
		if e.Status == "" {
			sl.ReportError(resp.Entries, "entries", "Entries", "status_required", string(e.Roll))
			return
		}
	}
}

// StripFences removes a surrounding markdown code fence (```json ... ```) if any.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	// drop the opening fence line, language tag included
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseResponse decodes and validates the provider's answer. Anything short of a fully valid document is an error.
func parseResponse(text string, validate *validator.Validate) (response, error) {
	var resp response

	body := StripFences(text)
	if body == "" {
		return resp, newProviderError("empty response", nil)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&resp); err != nil {
		return response{}, newProviderError("malformed response", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return response{}, newProviderError("malformed response", errors.New("trailing data after JSON document"))
	}

	if err := validate.Struct(resp); err != nil {
		return response{}, newProviderError("invalid response", err)
	}
	return resp, nil
}
