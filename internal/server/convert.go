package server

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/analysis"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/fields"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/products"
)

func stringField(s *structpb.Struct, key string) string {
	return strings.TrimSpace(s.GetFields()[key].GetStringValue())
}

func numberField(s *structpb.Struct, key string) (float64, bool) {
	v, ok := s.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return v.NumberValue, true
}

func listField(s *structpb.Struct, key string) []*structpb.Value {
	return s.GetFields()[key].GetListValue().GetValues()
}

// toDocument decodes {name, media_type, content_base64}. A missing media type
// is derived from the file extension.
func toDocument(s *structpb.Struct) (ocr.Document, error) {
	name := stringField(s, "name")
	mediaType := stringField(s, "media_type")
	if mediaType == "" && name != "" {
		mediaType = constants.MediaTypeForExt(filepath.Ext(name))
	}

	v := common.NewValidator().
		Field("name", name, common.Required).
		Field("content_base64", stringField(s, "content_base64"), common.Required)
	if err := v.Err(); err != nil {
		return ocr.Document{}, err
	}

	content, err := base64.StdEncoding.DecodeString(stringField(s, "content_base64"))
	if err != nil {
		return ocr.Document{}, common.NewAppError("BAD_CONTENT", "content_base64 is not valid base64", common.ErrInvalidInput)
	}
	return ocr.Document{Name: name, MediaType: mediaType, Content: content}, nil
}

// toClient reads {client_name, age}; age must be an integral number.
func toClient(s *structpb.Struct) (analysis.ClientProfile, error) {
	name := stringField(s, "client_name")
	age, ok := numberField(s, "age")

	v := common.NewValidator().
		Field("client_name", name, common.Required, common.MaxLength(200))
	if !ok {
		v.Field("age", nil, common.Required)
	} else {
		v.Field("age", age, common.Integral)
	}
	if err := v.Err(); err != nil {
		return analysis.ClientProfile{}, err
	}
	return analysis.ClientProfile{Name: name, Age: int(age)}, nil
}

func contractsValue(cs []fields.Contract) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, map[string]any{
			"number":      c.Number,
			"installment": c.Installment,
		})
	}
	return out
}

func stringsValue(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func extractionMap(res ocr.ExtractionResult, r fields.Reading) map[string]any {
	return map[string]any{
		"text":        res.Text,
		"status":      string(res.Status),
		"pages":       res.Pages,
		"method":      res.Method,
		"confidence":  float64(res.Confidence),
		"warnings":    stringsValue(res.Warnings),
		"duration_ms": res.Duration.Milliseconds(),
		"margin":      r.Margin,
		"contracts":   contractsValue(r.Contracts),
		"skipped":     r.Skipped,
	}
}

func reportMap(r analysis.Report, docs []analysis.DocumentResult) map[string]any {
	lenders := make([]any, 0, len(r.Lenders))
	for _, l := range r.Lenders {
		rows := make([]any, 0, len(l.Rows))
		for _, row := range l.Rows {
			rows = append(rows, map[string]any{
				"product":    string(row.Product),
				"label":      row.Label,
				"eligible":   row.Eligible,
				"answer":     row.Answer(),
				"annotation": row.Annotation,
			})
		}
		lenders = append(lenders, map[string]any{"name": l.Name, "rows": rows})
	}

	files := make([]any, 0, len(docs))
	for _, d := range docs {
		files = append(files, map[string]any{
			"name":       d.Name,
			"status":     string(d.Extraction.Status),
			"pages":      d.Extraction.Pages,
			"margin":     d.Reading.Margin,
			"contracts":  len(d.Reading.Contracts),
			"confidence": float64(d.Extraction.Confidence),
		})
	}

	return map[string]any{
		"session_id": r.SessionID,
		"client": map[string]any{
			"name": r.Client.Name,
			"age":  r.Client.Age,
		},
		"verdict": map[string]any{
			"passed":     r.Verdict.Passed,
			"reason":     r.Verdict.Reason,
			"violations": stringsValue(r.Verdict.Violations),
		},
		"margin":       r.Margin,
		"documents":    r.Documents,
		"contracts":    contractsValue(r.Contracts),
		"lenders":      lenders,
		"files":        files,
		"generated_at": r.GeneratedAt.Format(time.RFC3339),
	}
}

func lendersMap(t *products.Table) map[string]any {
	names := t.Lenders()
	out := make([]any, 0, len(names))
	for _, name := range names {
		l, ok := t.Lender(name)
		if !ok {
			continue
		}
		rules := map[string]any{}
		for _, p := range constants.AllProducts() {
			rules[string(p)] = l.Products[p].String()
		}
		out = append(out, map[string]any{"name": name, "products": rules})
	}
	return map[string]any{"lenders": out}
}
