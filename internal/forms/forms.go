package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vvka-141/intake/pkg/intake"
)

// ErrNotObject is returned by Decode for a JSON scalar body.
var ErrNotObject = errors.New("body is not a JSON object")

// MissingBody is the JSON body returned when a required field is missing.
// Personal info predates the others and reports under "error".
type MissingBody struct {
	Key     string
	Message string
}

// Form is one intake endpoint's contract.
type Form struct {
	Name      string
	Path      string
	Fields    []string
	Statement string
	Missing   MissingBody
}

// All lists the forms in the order their routes are registered.
var All = []Form{
	{
		Name:      "buttons",
		Path:      "/save-buttons",
		Fields:    []string{"ClientNeed"},
		Statement: "INSERT INTO form1_client_need (client_need) VALUES ($1)",
		Missing:   MissingBody{Key: "message", Message: "ClientNeed is required."},
	},
	{
		Name:      "goals",
		Path:      "/save-goals",
		Fields:    []string{"ClientGoal"},
		Statement: "INSERT INTO form2_client_goal (client_goal) VALUES ($1)",
		Missing:   MissingBody{Key: "message", Message: "ClientGoal is required."},
	},
	{
		Name:      "budget",
		Path:      "/save-budget",
		Fields:    []string{"ClientBudget"},
		Statement: "INSERT INTO form3_client_budget (client_budget) VALUES ($1)",
		Missing:   MissingBody{Key: "message", Message: "ClientBudget is required."},
	},
	{
		Name:      "website-url",
		Path:      "/save-website-url",
		Fields:    []string{"client_site_url"},
		Statement: "INSERT INTO form4_client_site (client_site_url) VALUES ($1)",
		Missing:   MissingBody{Key: "message", Message: "Website URL is required."},
	},
	{
		Name:      "personal-info",
		Path:      "/save-personal-info",
		Fields:    []string{"name", "email", "phone"},
		Statement: "INSERT INTO form5_client_personal_info (name, email, phone) VALUES ($1, $2, $3)",
		Missing:   MissingBody{Key: "error", Message: "All fields are required."},
	},
}

// Decode parses a submission body into its top-level fields.
// An empty body, null or an array decodes to an empty submission.
// Numbers keep their literal text.
func Decode(body io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON body: trailing data")
	}

	switch v := doc.(type) {
	case map[string]any:
		return v, nil
	case nil, []any:
		return map[string]any{}, nil
	default:
		return nil, ErrNotObject
	}
}

// Build validates a decoded submission and turns it into a WriteRequest.
// It returns *intake.ValidationError naming every missing field.
func (f Form) Build(fields map[string]any) (intake.WriteRequest, error) {
	var missing []string
	params := make([]any, 0, len(f.Fields))

	for _, name := range f.Fields {
		v, ok := fields[name]
		if !ok || !present(v) {
			missing = append(missing, name)
			continue
		}
		text, err := asText(v)
		if err != nil {
			return intake.WriteRequest{}, fmt.Errorf("field %s: %w", name, err)
		}
		params = append(params, text)
	}

	if len(missing) > 0 {
		return intake.WriteRequest{}, &intake.ValidationError{Form: f.Name, Fields: missing}
	}
	return intake.NewWriteRequest(f.Name, f.Statement, params...), nil
}

// present reports whether v counts as supplied: null, "", false and 0 do not.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case json.Number:
		n, err := val.Float64()
		return err != nil || n != 0
	default:
		return true
	}
}

func asText(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
}
